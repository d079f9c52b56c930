package collections

import (
	"context"
	"net/http"
	"strings"

	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

func parseStatusFilter(r *http.Request) (*enums.CollectionStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseCollectionStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
			WithDetails(map[string]any{"field": "status"})
	}
	return &status, nil
}

// withCollection tags rejection and error logs with the collection id.
func withCollection(ctx context.Context, logg *logger.Logger, id uint) context.Context {
	if logg == nil {
		return ctx
	}
	return logg.WithCollectionID(ctx, id)
}
