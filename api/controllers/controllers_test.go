package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencredits/greencredits-backend/api/middleware"
	"github.com/greencredits/greencredits-backend/internal/ledger"
	"github.com/greencredits/greencredits-backend/internal/recurring"
	"github.com/greencredits/greencredits-backend/pkg/config"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
)

type stubWallet struct {
	ledger.Service

	balance   ledger.Balance
	donated   enums.Charity
	amount    int64
	adjustFor uint
	err       error
}

func (s *stubWallet) Balance(context.Context, uint) (ledger.Balance, error) {
	return s.balance, s.err
}

func (s *stubWallet) Donate(_ context.Context, userID uint, amountCents int64, charity enums.Charity) (*ledger.DebitResult, error) {
	s.donated = charity
	s.amount = amountCents
	if s.err != nil {
		return nil, s.err
	}
	ref := "DON-2026-000001"
	return &ledger.DebitResult{
		Entry:        &models.WalletTransaction{ID: 4, UserID: userID, Kind: enums.WalletTxKindDebitDonation, AmountCents: -amountCents, ProofRef: &ref},
		ProofRef:     ref,
		BalanceCents: s.balance.Cents - amountCents,
	}, nil
}

func (s *stubWallet) ManualAdjustment(_ context.Context, userID uint, amountCents int64, note string) (*models.WalletTransaction, error) {
	s.adjustFor = userID
	s.amount = amountCents
	return &models.WalletTransaction{ID: 9, UserID: userID, Kind: enums.WalletTxKindManualAdjustment, AmountCents: amountCents, Note: &note}, s.err
}

type stubGenerator struct {
	horizon int
	result  recurring.Result
	err     error
}

func (s *stubGenerator) Generate(_ context.Context, horizonWeeks int) (recurring.Result, error) {
	s.horizon = horizonWeeks
	return s.result, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func asUser(req *http.Request, userID uint) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), userID, enums.RoleUser))
}

func dataOf(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env.Data
}

func errorCodeOf(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env.Error.Code
}

func TestWalletBalanceReportsCentsAndEuro(t *testing.T) {
	svc := &stubWallet{balance: ledger.Balance{Cents: 1575, LastUpdated: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}}
	resp := httptest.NewRecorder()

	WalletBalance(svc, nil).ServeHTTP(resp, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/balance", nil), 3))

	require.Equal(t, http.StatusOK, resp.Code)
	data := dataOf(t, resp)
	assert.EqualValues(t, 1575, data["balanceCents"])
	assert.Equal(t, "15.75", data["balanceEur"])
}

func TestWalletDonateReturnsProofReference(t *testing.T) {
	svc := &stubWallet{balance: ledger.Balance{Cents: 2000}}
	body := `{"amountCents":500,"charity":"barnardos"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/donate", strings.NewReader(body)), 3)
	resp := httptest.NewRecorder()

	WalletDonate(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, enums.CharityBarnardos, svc.donated)
	assert.Equal(t, int64(500), svc.amount)
	data := dataOf(t, resp)
	assert.Equal(t, "DON-2026-000001", data["proofRef"])
	assert.EqualValues(t, 1500, data["balanceCents"])
}

func TestWalletDonateRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubWallet{}
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/donate", strings.NewReader(`{"amountCents":0,"charity":"barnardos"}`)), 3)
	resp := httptest.NewRecorder()

	WalletDonate(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, svc.donated)
}

func TestWalletDonateMapsInsufficientFunds(t *testing.T) {
	svc := &stubWallet{err: pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient balance")}
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/wallet/donate", strings.NewReader(`{"amountCents":900,"charity":"barnardos"}`)), 3)
	resp := httptest.NewRecorder()

	WalletDonate(svc, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "STATE_CONFLICT", errorCodeOf(t, resp))
}

func TestAdminWalletAdjustmentAcceptsNegativeAmounts(t *testing.T) {
	svc := &stubWallet{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/wallet/adjustments", strings.NewReader(`{"userId":8,"amountCents":-250,"note":"duplicate credit"}`))
	resp := httptest.NewRecorder()

	AdminWalletAdjustment(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, uint(8), svc.adjustFor)
	assert.Equal(t, int64(-250), svc.amount)
}

func TestActorIDRequiresAuthenticatedUser(t *testing.T) {
	_, err := ActorID(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	id, err := ActorID(asUser(httptest.NewRequest(http.MethodGet, "/", nil), 12))
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)
}

func TestAdminGenerateRecurringUsesDefaultHorizon(t *testing.T) {
	gen := &stubGenerator{result: recurring.Result{Generated: 3, Skipped: 1}}
	resp := httptest.NewRecorder()

	AdminGenerateRecurring(gen, 4, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/recurring/generate", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 4, gen.horizon)
	data := dataOf(t, resp)
	assert.EqualValues(t, 3, data["generated"])
	assert.EqualValues(t, 1, data["skipped"])
	assert.NotContains(t, data, "errors")
}

func TestAdminGenerateRecurringRejectsHorizonOutOfRange(t *testing.T) {
	gen := &stubGenerator{}
	resp := httptest.NewRecorder()

	AdminGenerateRecurring(gen, 4, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/recurring/generate?horizonWeeks=60", nil))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, gen.horizon)
}

func TestAdminGenerateRecurringReturnsPartialCounts(t *testing.T) {
	gen := &stubGenerator{
		result: recurring.Result{Generated: 2},
		err:    fmt.Errorf("slot 9: %w", errors.New("insert failed")),
	}
	resp := httptest.NewRecorder()

	AdminGenerateRecurring(gen, 4, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/recurring/generate?horizonWeeks=2", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	data := dataOf(t, resp)
	assert.EqualValues(t, 2, data["generated"])
	assert.Contains(t, data["errors"], "insert failed")
}

func TestAdminGenerateRecurringFailsWhenSlotsUnavailable(t *testing.T) {
	gen := &stubGenerator{
		err: pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %v", recurring.ErrSlotsUnavailable, errors.New("db down")), "list recurring slots"),
	}
	resp := httptest.NewRecorder()

	AdminGenerateRecurring(gen, 4, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/recurring/generate", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHealthReadyNamesFailingDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	handler := HealthReady(cfg, nil, map[string]Pinger{
		"database": stubPinger{},
		"redis":    stubPinger{err: errors.New("dial tcp: refused")},
	})
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-GreenCredits-Env"))
	assert.Contains(t, resp.Body.String(), `"dependency":"redis"`)
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	resp := httptest.NewRecorder()

	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
}
