// Package paymentswebhook applies payment provider events to subscriptions.
package paymentswebhook

import (
	"context"
	"strings"

	"github.com/greencredits/greencredits-backend/internal/subscriptions"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

// Event types that activate a plan.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventInvoicePaid       = "invoice.paid"
)

// Outcome reports what a delivery did.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Event is the provider-neutral webhook body.
type Event struct {
	EventID        string `json:"event_id" validate:"required"`
	Type           string `json:"type" validate:"required"`
	UserID         uint   `json:"user_id"`
	PriceID        string `json:"price_id"`
	PlanCode       string `json:"plan_code"`
	AmountCents    int64  `json:"amount_cents" validate:"gte=0"`
	InvoiceID      string `json:"invoice_id"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
}

type planChooser interface {
	ChoosePlan(ctx context.Context, userID uint, plan enums.PlanCode, input subscriptions.ChoosePlanInput) (*models.Subscription, bool, error)
}

type priceMapper interface {
	PlanForPrice(priceID string) (string, bool)
}

type guard interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// ServiceParams wires the webhook service.
type ServiceParams struct {
	Subscriptions planChooser
	Prices        priceMapper
	Guard         guard
	Logger        *logger.Logger
}

// Service handles payment webhook deliveries.
type Service struct {
	subscriptions planChooser
	prices        priceMapper
	guard         guard
	logg          *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription service required")
	}
	if params.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "price mapping required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		subscriptions: params.Subscriptions,
		prices:        params.Prices,
		guard:         params.Guard,
		logg:          params.Logger,
	}, nil
}

// HandleEvent applies a paid plan at most once per provider event id. When
// processing fails the guard is released so the provider retry gets through.
func (s *Service) HandleEvent(ctx context.Context, event Event) (Outcome, error) {
	eventID := strings.TrimSpace(event.EventID)
	if eventID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "event_id is required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"webhook_event_id":   eventID,
		"webhook_event_type": event.Type,
		"user_id":            event.UserID,
	})

	if event.Type != EventCheckoutCompleted && event.Type != EventInvoicePaid {
		s.logg.Debug(ctx, "payment webhook type ignored")
		return OutcomeIgnored, nil
	}

	seen, err := s.guard.Claim(ctx, eventID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency")
	}
	if seen {
		s.logg.Info(ctx, "payment webhook already processed")
		return OutcomeDuplicate, nil
	}

	plan, ok := s.resolvePlan(event)
	if !ok || event.UserID == 0 {
		s.logg.Warn(ctx, "payment webhook missing user or unknown plan")
		return OutcomeIgnored, nil
	}

	_, applied, err := s.subscriptions.ChoosePlan(ctx, event.UserID, plan, subscriptions.ChoosePlanInput{
		AmountCents:            event.AmountCents,
		InvoiceID:              event.InvoiceID,
		ExternalCustomerID:     event.CustomerID,
		ExternalSubscriptionID: event.SubscriptionID,
	})
	if err != nil {
		if releaseErr := s.guard.Release(ctx, eventID); releaseErr != nil {
			s.logg.Error(ctx, "failed to release webhook idempotency key", releaseErr)
		}
		return "", err
	}
	if !applied {
		s.logg.Info(ctx, "payment webhook plan already active")
		return OutcomeUnchanged, nil
	}
	s.logg.Info(s.logg.WithField(ctx, "plan_code", string(plan)), "payment webhook activated subscription")
	return OutcomeApplied, nil
}

func (s *Service) resolvePlan(event Event) (enums.PlanCode, bool) {
	if code := enums.PlanCode(strings.TrimSpace(event.PlanCode)); code.IsValid() {
		return code, true
	}
	mapped, ok := s.prices.PlanForPrice(event.PriceID)
	if !ok {
		return "", false
	}
	return enums.PlanCode(mapped), true
}
