package controllers

import (
	"net/http"

	"github.com/greencredits/greencredits-backend/api/middleware"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
)

// ActorID returns the authenticated user id or an UNAUTHORIZED error.
func ActorID(r *http.Request) (uint, error) {
	id := middleware.UserIDFromContext(r.Context())
	if id == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}
