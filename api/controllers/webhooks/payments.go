package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	paymentswebhook "github.com/greencredits/greencredits-backend/internal/webhooks/payments"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

const maxWebhookBody = 1 << 20

type PaymentsWebhookService interface {
	HandleEvent(ctx context.Context, event paymentswebhook.Event) (paymentswebhook.Outcome, error)
}

// PaymentsWebhook accepts provider deliveries. Unknown fields are tolerated.
func PaymentsWebhook(svc PaymentsWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var event paymentswebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}
		if err := validators.ValidateStruct(&event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"webhook_event_id":   event.EventID,
				"webhook_event_type": event.Type,
			})
		}

		outcome, err := svc.HandleEvent(ctx, event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "outcome", string(outcome)), "payments.webhook.handled")
		}
		responses.WriteSuccess(w, map[string]any{"received": true, "outcome": outcome})
	}
}
