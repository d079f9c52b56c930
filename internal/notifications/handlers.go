package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"go.uber.org/multierr"
)

type subscriber interface {
	Subscribe(name enums.EventName, handler events.Handler)
}

// message is what one event renders to, both in-app and by email.
type message struct {
	Subject string
	Body    string
}

type renderer func(p events.Payload) message

var renderers = map[enums.EventName]renderer{
	enums.EventCollectionScheduled: func(p events.Payload) message {
		return message{
			Subject: "Collection Scheduled",
			Body: fmt.Sprintf("Your collection #%d is scheduled.\n\nWhen: %s\nReturn point: %s\n",
				uintOf(p, "collection_id"), stringOf(p, "scheduled_at"), stringOf(p, "return_point_name")),
		}
	},
	enums.EventCollectionCollected: func(p events.Payload) message {
		return message{
			Subject: "Collection Picked Up",
			Body: fmt.Sprintf("%s has picked up your bags for collection #%d.\n",
				stringOf(p, "driver_name"), uintOf(p, "collection_id")),
		}
	},
	enums.EventCollectionCompleted: func(p events.Payload) message {
		body := fmt.Sprintf("Collection #%d is complete.\n\nVoucher: €%.2f\nProof: %s\n",
			uintOf(p, "collection_id"), floatOf(p, "voucher_amount_eur"), stringOf(p, "proof_url"))
		if name := stringOf(p, "charity_name"); name != "-" {
			body += fmt.Sprintf("Donated to: %s\n", name)
		}
		return message{Subject: "Collection Completed", Body: body}
	},
	enums.EventWalletCreditCreated: func(p events.Payload) message {
		return message{
			Subject: "Voucher Added",
			Body: fmt.Sprintf("Voucher balance credit has been added.\n\nAmount: €%.2f\nReference: %s\nNew balance: %s\nTime: %s\n",
				floatOf(p, "amount_eur"), stringOf(p, "proof_ref"), balanceOf(p), stringOf(p, "ts")),
		}
	},
	enums.EventWalletDebitDonated: func(p events.Payload) message {
		return message{
			Subject: "Donation Confirmed",
			Body: fmt.Sprintf("Your donation has been confirmed.\n\nAmount: €%.2f\nProof reference: %s\nNew balance: %s\nTime: %s\n",
				floatOf(p, "amount_eur"), stringOf(p, "proof_ref"), balanceOf(p), stringOf(p, "ts")),
		}
	},
	enums.EventWalletDebitRedeemed: func(p events.Payload) message {
		return message{
			Subject: "Redemption Confirmed",
			Body: fmt.Sprintf("Your redemption has been confirmed.\n\nAmount: €%.2f\nProof reference: %s\nNew balance: %s\nTime: %s\n",
				floatOf(p, "amount_eur"), stringOf(p, "proof_ref"), balanceOf(p), stringOf(p, "ts")),
		}
	},
	enums.EventSubscriptionConfirmed: func(p events.Payload) message {
		return message{
			Subject: "Subscription Confirmed",
			Body: fmt.Sprintf("Your GreenCredits subscription is confirmed.\n\nPlan: %s\nAmount: €%.2f\nInvoice ID: %s\nTime: %s\n",
				stringOf(p, "plan_code"), floatOf(p, "amount_eur"), stringOf(p, "invoice_id"), stringOf(p, "ts")),
		}
	},
	enums.EventClaimResolved: func(p events.Payload) message {
		return message{
			Subject: "Claim Resolved",
			Body: fmt.Sprintf("Your claim #%d has been resolved.\n\nResponse: %s\nTime: %s\n",
				uintOf(p, "claim_id"), stringOf(p, "admin_response"), stringOf(p, "ts")),
		}
	},
}

// Handlers turns domain events into an in-app notification plus an email.
type Handlers struct {
	repo   Repository
	mailer Mailer
	logg   *logger.Logger
}

// NewHandlers builds the event handlers.
func NewHandlers(repo Repository, mailer Mailer, logg *logger.Logger) (*Handlers, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Handlers{repo: repo, mailer: mailer, logg: logg}, nil
}

// Register subscribes a handler for every known event.
func (h *Handlers) Register(d subscriber) {
	for _, name := range enums.AllEventNames {
		if _, ok := renderers[name]; ok {
			d.Subscribe(name, h.Handle)
		}
	}
}

// Handle renders evt, stores an in-app row for the addressed user and emails
// them. Both steps are attempted; their errors are combined.
func (h *Handlers) Handle(ctx context.Context, evt events.Event) error {
	render, ok := renderers[evt.Name]
	if !ok {
		return nil
	}
	msg := render(evt.Payload)
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_id":   evt.ID.String(),
		"event_name": string(evt.Name),
	})

	var errs error
	if userID := uintOf(evt.Payload, "user_id"); userID != 0 {
		notification := &models.Notification{UserID: &userID, Title: msg.Subject, Body: strings.TrimSpace(msg.Body)}
		if err := h.repo.Create(ctx, notification); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store notification: %w", err))
		}
	}
	if email := strings.TrimSpace(stringOf(evt.Payload, "email")); email != "" && email != "-" {
		if err := h.mailer.Send(ctx, email, msg.Subject, msg.Body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send email: %w", err))
		}
	}
	if errs != nil {
		return errs
	}
	h.logg.Debug(logCtx, "notification delivered")
	return nil
}

func stringOf(p events.Payload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return "-"
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return "-"
	}
	return s
}

func floatOf(p events.Payload, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func uintOf(p events.Payload, key string) uint {
	switch v := p[key].(type) {
	case uint:
		return v
	case uint64:
		return uint(v)
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

func balanceOf(p events.Payload) string {
	if _, ok := p["new_balance_eur"]; !ok {
		return "-"
	}
	return fmt.Sprintf("€%.2f", floatOf(p, "new_balance_eur"))
}
