package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/money"
	"gorm.io/gorm"
)

type subscriptionRepository interface {
	Latest(ctx context.Context, userID uint) (*models.Subscription, error)
	LatestForUpdate(ctx context.Context, userID uint) (*models.Subscription, error)
	Save(ctx context.Context, sub *models.Subscription) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Service defines the subscription lifecycle surface.
type Service interface {
	IsActive(ctx context.Context, userID uint) (bool, error)
	Get(ctx context.Context, userID uint) (*models.Subscription, error)
	Activate(ctx context.Context, userID uint, plan enums.PlanCode) (*models.Subscription, error)
	Cancel(ctx context.Context, userID uint) (*models.Subscription, error)
	ChoosePlan(ctx context.Context, userID uint, plan enums.PlanCode, input ChoosePlanInput) (*models.Subscription, bool, error)
}

// ChoosePlanInput carries the payment details behind a plan selection.
type ChoosePlanInput struct {
	AmountCents            int64
	InvoiceID              string
	ExternalCustomerID     string
	ExternalSubscriptionID string
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo      *Repository
	DB        txRunner
	Users     userLookup
	Publisher events.Publisher
	Now       func() time.Time
}

type service struct {
	repo      *Repository
	db        txRunner
	users     userLookup
	publisher events.Publisher
	now       func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		db:        params.DB,
		users:     params.Users,
		publisher: params.Publisher,
		now:       now,
	}, nil
}

func (s *service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// IsActive is the booking gate.
func (s *service) IsActive(ctx context.Context, userID uint) (bool, error) {
	sub, err := s.repo.Latest(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return grantsAccess(sub, s.today()), nil
}

func grantsAccess(sub *models.Subscription, today time.Time) bool {
	if sub == nil || !sub.Status.GrantsBooking() {
		return false
	}
	if sub.CurrentPeriodEnd == nil {
		return true
	}
	return !sub.CurrentPeriodEnd.UTC().Before(today)
}

// Get returns the current row, or an unsaved inactive one when none exists.
func (s *service) Get(ctx context.Context, userID uint) (*models.Subscription, error) {
	sub, err := s.repo.Latest(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return &models.Subscription{UserID: userID, Status: enums.SubscriptionStatusInactive}, nil
	}
	return sub, nil
}

// Activate starts a period for plan without payment; used by admins and dev tooling.
func (s *service) Activate(ctx context.Context, userID uint, plan enums.PlanCode) (*models.Subscription, error) {
	if plan == "" {
		plan = enums.PlanCodeMonthly
	}
	if !plan.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown plan %q", plan)
	}
	var out *models.Subscription
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		sub, err := s.apply(ctx, tx, userID, plan, ChoosePlanInput{})
		out = sub
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel keeps access until the paid period ends.
func (s *service) Cancel(ctx context.Context, userID uint) (*models.Subscription, error) {
	var out *models.Subscription
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := repo.LatestForUpdate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if sub == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no subscription")
		}
		out = sub
		if sub.Status == enums.SubscriptionStatusCanceled {
			return nil
		}
		if sub.Status != enums.SubscriptionStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is not active")
		}
		today := s.today()
		sub.Status = enums.SubscriptionStatusCanceled
		sub.EndDate = &today
		if err := repo.Save(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChoosePlan applies a paid plan. applied is false when the same plan is
// already active and the payment carries no new invoice, so redelivered
// checkouts write nothing. A new invoice for the active plan is a renewal and
// rolls the period forward.
func (s *service) ChoosePlan(ctx context.Context, userID uint, plan enums.PlanCode, input ChoosePlanInput) (*models.Subscription, bool, error) {
	if userID == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !plan.IsValid() {
		return nil, false, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown plan %q", plan)
	}

	var (
		out     *models.Subscription
		applied bool
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.WithTx(tx).LatestForUpdate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if current != nil && current.Status == enums.SubscriptionStatusActive &&
			current.PlanCode != nil && *current.PlanCode == plan.String() {
			if !isNewInvoice(current, input.InvoiceID) {
				out = current
				return nil
			}
			out, err = s.renew(ctx, tx, current, plan, input)
			applied = err == nil
			return err
		}
		out, err = s.apply(ctx, tx, userID, plan, input)
		applied = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if applied {
		s.publishConfirmed(ctx, userID, plan, input)
	}
	return out, applied, nil
}

func isNewInvoice(sub *models.Subscription, invoiceID string) bool {
	if invoiceID == "" {
		return false
	}
	return sub.LastInvoiceID == nil || *sub.LastInvoiceID != invoiceID
}

// renew extends an active period. A period that already lapsed restarts today.
func (s *service) renew(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan enums.PlanCode, input ChoosePlanInput) (*models.Subscription, error) {
	start := s.today()
	if sub.CurrentPeriodEnd != nil && !sub.CurrentPeriodEnd.UTC().Before(start) {
		start = sub.CurrentPeriodEnd.UTC()
	}
	end := periodEnd(start, plan)
	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &end
	setExternalRefs(sub, input)
	if err := s.repo.WithTx(tx).Save(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "renew subscription")
	}
	return sub, nil
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, userID uint, plan enums.PlanCode, input ChoosePlanInput) (*models.Subscription, error) {
	repo := s.repo.WithTx(tx)
	sub, err := repo.LatestForUpdate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		sub = &models.Subscription{UserID: userID}
	}

	start := s.today()
	end := periodEnd(start, plan)
	code := plan.String()
	sub.Status = enums.SubscriptionStatusActive
	sub.PlanCode = &code
	sub.StartDate = &start
	sub.EndDate = nil
	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &end
	setExternalRefs(sub, input)
	if err := repo.Save(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save subscription")
	}
	return sub, nil
}

func setExternalRefs(sub *models.Subscription, input ChoosePlanInput) {
	if input.InvoiceID != "" {
		invoiceID := input.InvoiceID
		sub.LastInvoiceID = &invoiceID
	}
	if input.ExternalCustomerID != "" {
		customerID := input.ExternalCustomerID
		sub.ExternalCustomerID = &customerID
	}
	if input.ExternalSubscriptionID != "" {
		subscriptionID := input.ExternalSubscriptionID
		sub.ExternalSubscriptionID = &subscriptionID
	}
}

func periodEnd(start time.Time, plan enums.PlanCode) time.Time {
	switch plan {
	case enums.PlanCodeWeekly:
		return start.AddDate(0, 0, 7)
	case enums.PlanCodeYearly:
		return addMonths(start, 12)
	default:
		return addMonths(start, 1)
	}
}

// addMonths moves t forward by months, clamping the day to the end of the
// target month: Jan 31 + 1 month is Feb 28 (or 29).
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func (s *service) publishConfirmed(ctx context.Context, userID uint, plan enums.PlanCode, input ChoosePlanInput) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return
	}
	s.publisher.Publish(ctx, enums.EventSubscriptionConfirmed, events.Payload{
		"user_id":    userID,
		"email":      user.Email,
		"plan_code":  plan.String(),
		"amount_eur": money.EURFloat(input.AmountCents),
		"invoice_id": input.InvoiceID,
		"ts":         s.now().UTC().Format(time.RFC3339),
	})
}
