package collections

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencredits/greencredits-backend/api/middleware"
	collectionsvc "github.com/greencredits/greencredits-backend/internal/collections"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

// stubService implements only what each test calls.
type stubService struct {
	collectionsvc.Service

	created    collectionsvc.CreateInput
	createdFor uint
	collection *models.Collection
	err        error

	listStatus *enums.CollectionStatus
	listParams pagination.Params
	completed  collectionsvc.MarkCompletedInput
}

func (s *stubService) Create(_ context.Context, userID uint, input collectionsvc.CreateInput) (*models.Collection, error) {
	s.createdFor = userID
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Collection{
		ID:                7,
		UserID:            userID,
		ReturnPointID:     input.ReturnPointID,
		ScheduledAt:       input.ScheduledAt,
		Status:            enums.CollectionStatusScheduled,
		BagCount:          input.BagCount,
		VoucherPreference: enums.VoucherPreferenceWallet,
		CollectionType:    "bottles",
	}, nil
}

func (s *stubService) Get(context.Context, uint) (*models.Collection, error) {
	return s.collection, s.err
}

func (s *stubService) Cancel(context.Context, uint, uint) (*models.Collection, error) {
	return s.collection, s.err
}

func (s *stubService) ListMine(_ context.Context, userID uint, status *enums.CollectionStatus, params pagination.Params) (pagination.Page[models.Collection], error) {
	s.listStatus = status
	s.listParams = params
	return pagination.NewPage([]models.Collection{*s.collection}, 1, params), nil
}

func (s *stubService) MarkCompleted(_ context.Context, _ uint, _ uint, input collectionsvc.MarkCompletedInput) (*models.Collection, error) {
	s.completed = input
	if s.err != nil {
		return nil, s.err
	}
	amount := input.VoucherAmountCents
	c := *s.collection
	c.Status = enums.CollectionStatusCompleted
	c.VoucherAmountCents = &amount
	return &c, nil
}

func withActor(req *http.Request, userID uint, role enums.Role) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), userID, role))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}

func TestCreateReturnsCreatedCollection(t *testing.T) {
	svc := &stubService{}
	body := `{"scheduledAt":"2026-03-10T10:00:00Z","returnPointId":3,"bagCount":2,"voucherPreference":"donate","charityId":"irish_cancer_society"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/collections", strings.NewReader(body)), 11, enums.RoleUser)
	resp := httptest.NewRecorder()

	Create(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, uint(11), svc.createdFor)
	assert.Equal(t, uint(3), svc.created.ReturnPointID)
	assert.Equal(t, enums.VoucherPreferenceDonate, svc.created.VoucherPreference)
	require.NotNil(t, svc.created.CharityID)
	assert.Equal(t, enums.Charity("irish_cancer_society"), *svc.created.CharityID)
	assert.True(t, svc.created.ScheduledAt.Equal(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)))

	var got collectionResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &got))
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, enums.CollectionStatusScheduled, got.Status)
}

func TestCreateRejectsMissingReturnPoint(t *testing.T) {
	svc := &stubService{}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/collections", strings.NewReader(`{"scheduledAt":"2026-03-10T10:00:00Z"}`)), 11, enums.RoleUser)
	resp := httptest.NewRecorder()

	Create(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	env := decode(t, resp)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "returnPointId")
}

func TestCreateSurfacesSubscriptionGate(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeForbidden, "an active subscription is required")}
	body := `{"scheduledAt":"2026-03-10T10:00:00Z","returnPointId":3}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/collections", strings.NewReader(body)), 11, enums.RoleUser)
	resp := httptest.NewRecorder()

	Create(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, resp).Error.Code)
}

func TestCreateRequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()

	Create(&stubService{}, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetHidesOtherUsersCollections(t *testing.T) {
	svc := &stubService{collection: &models.Collection{ID: 5, UserID: 99, Status: enums.CollectionStatusScheduled}}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/collections/5", nil), 11, enums.RoleUser)
	req = withURLParam(req, "collectionId", "5")
	resp := httptest.NewRecorder()

	Get(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetRejectsMalformedID(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/collections/abc", nil), 11, enums.RoleUser)
	req = withURLParam(req, "collectionId", "abc")
	resp := httptest.NewRecorder()

	Get(&stubService{}, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCancelMapsStateConflict(t *testing.T) {
	svc := &stubService{err: pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move %s -> %s", "completed", "canceled")}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/collections/5/cancel", nil), 11, enums.RoleUser)
	req = withURLParam(req, "collectionId", "5")
	resp := httptest.NewRecorder()

	Cancel(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "STATE_CONFLICT", decode(t, resp).Error.Code)
}

func TestListMineParsesFilters(t *testing.T) {
	svc := &stubService{collection: &models.Collection{ID: 1, UserID: 11, Status: enums.CollectionStatusAssigned}}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/collections?status=assigned&page=2&pageSize=5", nil), 11, enums.RoleUser)
	resp := httptest.NewRecorder()

	ListMine(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.listStatus)
	assert.Equal(t, enums.CollectionStatusAssigned, *svc.listStatus)
	assert.Equal(t, 2, svc.listParams.Page)
	assert.Equal(t, 5, svc.listParams.PageSize)
}

func TestListMineRejectsUnknownStatus(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/collections?status=lost", nil), 11, enums.RoleUser)
	resp := httptest.NewRecorder()

	ListMine(&stubService{}, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDriverMarkCompletedReportsVoucherInEuro(t *testing.T) {
	svc := &stubService{collection: &models.Collection{ID: 5, UserID: 11, Status: enums.CollectionStatusCollected}}
	body := `{"proofUrl":"https://cdn.example.com/receipts/r-1.jpg","voucherAmountCents":1250}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/driver/collections/5/completed", strings.NewReader(body)), 21, enums.RoleDriver)
	req = withURLParam(req, "collectionId", "5")
	resp := httptest.NewRecorder()

	DriverMarkCompleted(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, int64(1250), svc.completed.VoucherAmountCents)
	require.NotNil(t, svc.completed.ProofURL)

	var got map[string]any
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &got))
	assert.Equal(t, "completed", got["status"])
	assert.Equal(t, "12.5", got["voucherAmountEur"])
}

func TestHandlersFailWithoutService(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil), 11, enums.RoleUser)
	resp := httptest.NewRecorder()

	ListMine(nil, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
