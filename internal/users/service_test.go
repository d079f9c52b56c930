package users

import (
	"context"
	"testing"

	"github.com/greencredits/greencredits-backend/pkg/db/dbtest"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func TestCreateNormalizesAndDefaultsRole(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Create(context.Background(), CreateUserDTO{Email: "  Jane@Example.COM "})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, enums.RoleUser, user.Role)
	assert.NotZero(t, user.ID)
}

func TestCreateDuplicateEmailIsConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserDTO{Email: "dup@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateUserDTO{Email: "DUP@example.com"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateUserDTO{Email: "not-an-email"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(context.Background(), CreateUserDTO{Email: "a@b.com", Role: enums.Role("root")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFindByIDMissing(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.FindByID(context.Background(), 99)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestEnsureIsStable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ensure(ctx, "driver@example.com", enums.RoleDriver)
	require.NoError(t, err)
	second, err := svc.Ensure(ctx, "Driver@example.com", enums.RoleDriver)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, enums.RoleDriver, second.Role)
}
