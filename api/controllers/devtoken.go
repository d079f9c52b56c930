package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	"github.com/greencredits/greencredits-backend/internal/users"
	pkgAuth "github.com/greencredits/greencredits-backend/pkg/auth"
	"github.com/greencredits/greencredits-backend/pkg/config"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

type userEnsurer interface {
	Ensure(ctx context.Context, email string, role enums.Role) (*models.User, error)
}

type driverProfiler interface {
	EnsureProfile(ctx context.Context, userID uint) (*models.Driver, error)
}

type devTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=user driver admin"`
}

type devTokenResponse struct {
	AccessToken string         `json:"accessToken"`
	User        *users.UserDTO `json:"user"`
	ExpiresAt   time.Time      `json:"expiresAt"`
}

// DevToken provisions a user by email and mints an access token. Only routed outside prod.
func DevToken(svc userEnsurer, profiles driverProfiler, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var body devTokenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.RoleUser
		if body.Role != "" {
			role = enums.Role(body.Role)
		}

		user, err := svc.Ensure(r.Context(), body.Email, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if user.Role == enums.RoleDriver && profiles != nil {
			if _, err := profiles.EnsureProfile(r.Context(), user.ID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		now := time.Now().UTC()
		token, err := pkgAuth.MintAccessToken(cfg, now, pkgAuth.AccessTokenPayload{UserID: user.ID, Role: user.Role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}

		responses.WriteSuccess(w, devTokenResponse{
			AccessToken: token,
			User:        users.FromModel(user),
			ExpiresAt:   now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute),
		})
	}
}
