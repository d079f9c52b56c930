package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	"github.com/greencredits/greencredits-backend/internal/recurring"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

type occurrenceGenerator interface {
	Generate(ctx context.Context, horizonWeeks int) (recurring.Result, error)
}

// AdminGenerateRecurring materializes recurring slots; horizonWeeks overrides the configured default.
func AdminGenerateRecurring(gen occurrenceGenerator, defaultHorizon int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gen == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recurring generator unavailable"))
			return
		}
		if defaultHorizon <= 0 {
			defaultHorizon = recurring.DefaultHorizonWeeks
		}
		horizon, err := validators.ParseQueryInt(r, "horizonWeeks", defaultHorizon, 1, 52)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := gen.Generate(r.Context(), horizon)
		if errors.Is(err, recurring.ErrSlotsUnavailable) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err != nil {
			// Per-slot failures still return the partial counts.
			if logg != nil {
				logg.Error(r.Context(), "recurring.generate.partial_failure", err)
			}
			responses.WriteSuccess(w, map[string]any{
				"generated":    result.Generated,
				"skipped":      result.Skipped,
				"horizonWeeks": horizon,
				"errors":       err.Error(),
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"generated":    result.Generated,
			"skipped":      result.Skipped,
			"horizonWeeks": horizon,
		})
	}
}
