package validators

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

func TestParsePage(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?page=3&pageSize=10", nil)
	params, err := ParsePage(r)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Page: 3, PageSize: 10}, params)

	r = httptest.NewRequest("GET", "/x", nil)
	params, err = ParsePage(r)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Page: 1, PageSize: pagination.DefaultPageSize}, params)

	r = httptest.NewRequest("GET", "/x?pageSize=1000", nil)
	_, err = ParsePage(r)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryUint(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?userId=42", nil)
	id, err := ParseQueryUint(r, "userId")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.EqualValues(t, 42, *id)

	id, err = ParseQueryUint(httptest.NewRequest("GET", "/x", nil), "userId")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = ParseQueryUint(httptest.NewRequest("GET", "/x?userId=-1", nil), "userId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryFloat(t *testing.T) {
	v, err := ParseQueryFloat(httptest.NewRequest("GET", "/x?lat=53.33", nil), "lat")
	require.NoError(t, err)
	assert.InDelta(t, 53.33, *v, 1e-9)

	_, err = ParseQueryFloat(httptest.NewRequest("GET", "/x?lat=north", nil), "lat")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePathUint(t *testing.T) {
	r := httptest.NewRequest("GET", "/collections/9", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("collectionId", "9")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	id, err := ParsePathUint(r, "collectionId")
	require.NoError(t, err)
	assert.EqualValues(t, 9, id)

	rctx = chi.NewRouteContext()
	rctx.URLParams.Add("collectionId", "abc")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	_, err = ParsePathUint(r, "collectionId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
