package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/dbtest"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"gorm.io/gorm"
)

type stubUsers struct{}

func (stubUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	return &models.User{ID: id, Email: "sub@example.com"}, nil
}

type harness struct {
	svc      Service
	repo     *Repository
	conn     *gorm.DB
	recorder *events.Recorder
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	h := &harness{
		repo:     NewRepository(conn),
		conn:     conn,
		recorder: &events.Recorder{},
		now:      time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Repo:      h.repo,
		DB:        client,
		Users:     stubUsers{},
		Publisher: h.recorder,
		Now:       func() time.Time { return h.now },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.svc = svc
	return h
}

func (h *harness) insert(t *testing.T, sub *models.Subscription) {
	t.Helper()
	if err := h.conn.Create(sub).Error; err != nil {
		t.Fatalf("insert subscription: %v", err)
	}
}

func day(y int, m time.Month, d int) *time.Time {
	out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &out
}

func TestIsActiveRules(t *testing.T) {
	cases := []struct {
		name string
		sub  *models.Subscription
		want bool
	}{
		{name: "no row", want: false},
		{name: "inactive", sub: &models.Subscription{Status: enums.SubscriptionStatusInactive}, want: false},
		{name: "active open ended", sub: &models.Subscription{Status: enums.SubscriptionStatusActive}, want: true},
		{name: "active ends today", sub: &models.Subscription{Status: enums.SubscriptionStatusActive, CurrentPeriodEnd: day(2025, 1, 31)}, want: true},
		{name: "active ended yesterday", sub: &models.Subscription{Status: enums.SubscriptionStatusActive, CurrentPeriodEnd: day(2025, 1, 30)}, want: false},
		{name: "canceled within period", sub: &models.Subscription{Status: enums.SubscriptionStatusCanceled, CurrentPeriodEnd: day(2025, 2, 10)}, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			if tc.sub != nil {
				tc.sub.UserID = 1
				h.insert(t, tc.sub)
			}
			got, err := h.svc.IsActive(context.Background(), 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsActiveUsesNewestRow(t *testing.T) {
	h := newHarness(t)
	h.insert(t, &models.Subscription{UserID: 1, Status: enums.SubscriptionStatusActive})
	h.insert(t, &models.Subscription{UserID: 1, Status: enums.SubscriptionStatusInactive})

	got, err := h.svc.IsActive(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Fatal("newest inactive row should close the gate")
	}
}

func TestChoosePlanPeriods(t *testing.T) {
	cases := map[enums.PlanCode]time.Time{
		enums.PlanCodeWeekly:  time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC),
		enums.PlanCodeMonthly: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		enums.PlanCodeYearly:  time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	for plan, wantEnd := range cases {
		h := newHarness(t)
		sub, applied, err := h.svc.ChoosePlan(context.Background(), 1, plan, ChoosePlanInput{AmountCents: 999, InvoiceID: "inv_1"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", plan, err)
		}
		if !applied {
			t.Fatalf("%s: expected plan applied", plan)
		}
		if !sub.CurrentPeriodEnd.Equal(wantEnd) {
			t.Fatalf("%s: expected period end %s, got %s", plan, wantEnd, sub.CurrentPeriodEnd)
		}
		if sub.Status != enums.SubscriptionStatusActive {
			t.Fatalf("%s: expected active, got %s", plan, sub.Status)
		}
	}
}

func TestChoosePlanSamePlanIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, applied, err := h.svc.ChoosePlan(ctx, 1, enums.PlanCodeMonthly, ChoosePlanInput{AmountCents: 499, InvoiceID: "inv_1"}); err != nil || !applied {
		t.Fatalf("first choose: applied=%v err=%v", applied, err)
	}
	h.now = h.now.Add(24 * time.Hour)
	sub, applied, err := h.svc.ChoosePlan(ctx, 1, enums.PlanCodeMonthly, ChoosePlanInput{AmountCents: 499, InvoiceID: "inv_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Fatal("same plan should not be reapplied")
	}
	if !sub.CurrentPeriodStart.Equal(*day(2025, 1, 31)) {
		t.Fatalf("period should be unchanged, got %s", sub.CurrentPeriodStart)
	}

	published := h.recorder.Named(enums.EventSubscriptionConfirmed)
	if len(published) != 1 {
		t.Fatalf("expected one confirmation event, got %d", len(published))
	}
	payload := published[0].Payload
	if payload["email"] != "sub@example.com" || payload["plan_code"] != "monthly" || payload["invoice_id"] != "inv_1" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if payload["amount_eur"] != 4.99 {
		t.Fatalf("expected amount 4.99, got %v", payload["amount_eur"])
	}

	var rows int64
	h.conn.Model(&models.Subscription{}).Where("user_id = ?", 1).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected a single subscription row, got %d", rows)
	}
}

func TestChoosePlanNewInvoiceRenewsActivePlan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.now = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

	if _, applied, err := h.svc.ChoosePlan(ctx, 1, enums.PlanCodeMonthly, ChoosePlanInput{AmountCents: 499, InvoiceID: "inv_1"}); err != nil || !applied {
		t.Fatalf("first choose: applied=%v err=%v", applied, err)
	}

	h.now = time.Date(2025, 2, 15, 9, 0, 0, 0, time.UTC)
	sub, applied, err := h.svc.ChoosePlan(ctx, 1, enums.PlanCodeMonthly, ChoosePlanInput{AmountCents: 499, InvoiceID: "inv_2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("new invoice for the active plan should renew")
	}
	if !sub.CurrentPeriodStart.Equal(*day(2025, 2, 15)) || !sub.CurrentPeriodEnd.Equal(*day(2025, 3, 15)) {
		t.Fatalf("expected period 2025-02-15..2025-03-15, got %s..%s", sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	}
	if !sub.StartDate.Equal(*day(2025, 1, 15)) {
		t.Fatalf("renewal should keep the original start date, got %s", sub.StartDate)
	}
	if sub.LastInvoiceID == nil || *sub.LastInvoiceID != "inv_2" {
		t.Fatalf("expected last invoice inv_2, got %v", sub.LastInvoiceID)
	}

	h.now = time.Date(2025, 2, 16, 9, 0, 0, 0, time.UTC)
	active, err := h.svc.IsActive(ctx, 1)
	if err != nil || !active {
		t.Fatalf("renewed subscriber should pass the gate: active=%v err=%v", active, err)
	}

	_, applied, err = h.svc.ChoosePlan(ctx, 1, enums.PlanCodeMonthly, ChoosePlanInput{AmountCents: 499, InvoiceID: "inv_2"})
	if err != nil || applied {
		t.Fatalf("redelivered invoice should be a no-op: applied=%v err=%v", applied, err)
	}
	stored, err := h.repo.Latest(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.CurrentPeriodEnd.Equal(*day(2025, 3, 15)) {
		t.Fatalf("redelivery moved period end to %s", stored.CurrentPeriodEnd)
	}
	if got := len(h.recorder.Named(enums.EventSubscriptionConfirmed)); got != 2 {
		t.Fatalf("expected two confirmation events, got %d", got)
	}
}

func TestChoosePlanRenewalAfterLapseRestartsToday(t *testing.T) {
	h := newHarness(t)
	h.insert(t, &models.Subscription{
		UserID:           1,
		Status:           enums.SubscriptionStatusActive,
		PlanCode:         strPtr("weekly"),
		CurrentPeriodEnd: day(2025, 1, 20),
	})

	sub, applied, err := h.svc.ChoosePlan(context.Background(), 1, enums.PlanCodeWeekly, ChoosePlanInput{InvoiceID: "inv_9"})
	if err != nil || !applied {
		t.Fatalf("renew: applied=%v err=%v", applied, err)
	}
	if !sub.CurrentPeriodStart.Equal(*day(2025, 1, 31)) || !sub.CurrentPeriodEnd.Equal(*day(2025, 2, 7)) {
		t.Fatalf("expected period 2025-01-31..2025-02-07, got %s..%s", sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	}
}

func TestPeriodEndClampsToMonthEnd(t *testing.T) {
	cases := []struct {
		start time.Time
		plan  enums.PlanCode
		want  time.Time
	}{
		{start: *day(2025, 1, 31), plan: enums.PlanCodeMonthly, want: *day(2025, 2, 28)},
		{start: *day(2024, 1, 31), plan: enums.PlanCodeMonthly, want: *day(2024, 2, 29)},
		{start: *day(2025, 3, 31), plan: enums.PlanCodeMonthly, want: *day(2025, 4, 30)},
		{start: *day(2025, 12, 31), plan: enums.PlanCodeMonthly, want: *day(2026, 1, 31)},
		{start: *day(2025, 1, 15), plan: enums.PlanCodeMonthly, want: *day(2025, 2, 15)},
		{start: *day(2024, 2, 29), plan: enums.PlanCodeYearly, want: *day(2025, 2, 28)},
		{start: *day(2025, 1, 31), plan: enums.PlanCodeWeekly, want: *day(2025, 2, 7)},
	}
	for _, tc := range cases {
		if got := periodEnd(tc.start, tc.plan); !got.Equal(tc.want) {
			t.Fatalf("%s from %s: expected %s, got %s", tc.plan, tc.start.Format("2006-01-02"), tc.want.Format("2006-01-02"), got.Format("2006-01-02"))
		}
	}
}

func strPtr(v string) *string { return &v }

func TestChoosePlanSwitchesPlan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, _, err := h.svc.ChoosePlan(ctx, 1, enums.PlanCodeWeekly, ChoosePlanInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub, applied, err := h.svc.ChoosePlan(ctx, 1, enums.PlanCodeYearly, ChoosePlanInput{ExternalCustomerID: "cus_1"})
	if err != nil || !applied {
		t.Fatalf("switch: applied=%v err=%v", applied, err)
	}
	if *sub.PlanCode != "yearly" || sub.ExternalCustomerID == nil || *sub.ExternalCustomerID != "cus_1" {
		t.Fatalf("unexpected subscription: %#v", sub)
	}
}

func TestChoosePlanRejectsUnknownPlan(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.svc.ChoosePlan(context.Background(), 1, enums.PlanCode("lifetime"), ChoosePlanInput{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelKeepsAccessUntilPeriodEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Activate(ctx, 1, ""); err != nil {
		t.Fatalf("activate: %v", err)
	}
	sub, err := h.svc.Cancel(ctx, 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusCanceled || sub.EndDate == nil {
		t.Fatalf("unexpected canceled row: %#v", sub)
	}
	active, err := h.svc.IsActive(ctx, 1)
	if err != nil || !active {
		t.Fatalf("canceled subscription should still book until period end: active=%v err=%v", active, err)
	}

	if _, err := h.svc.Cancel(ctx, 1); err != nil {
		t.Fatalf("second cancel should be a no-op: %v", err)
	}
	if _, err := h.svc.Cancel(ctx, 2); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetWithoutRowIsInactive(t *testing.T) {
	h := newHarness(t)
	sub, err := h.svc.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusInactive || sub.ID != 0 {
		t.Fatalf("expected unsaved inactive row, got %#v", sub)
	}
}

func TestExpireEndedPeriods(t *testing.T) {
	h := newHarness(t)
	h.insert(t, &models.Subscription{UserID: 1, Status: enums.SubscriptionStatusActive, CurrentPeriodEnd: day(2025, 1, 30)})
	h.insert(t, &models.Subscription{UserID: 2, Status: enums.SubscriptionStatusCanceled, CurrentPeriodEnd: day(2025, 1, 29)})
	h.insert(t, &models.Subscription{UserID: 3, Status: enums.SubscriptionStatusActive, CurrentPeriodEnd: day(2025, 1, 31)})
	h.insert(t, &models.Subscription{UserID: 4, Status: enums.SubscriptionStatusActive})

	rows, err := h.repo.ExpireEndedPeriods(context.Background(), h.conn, *day(2025, 1, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 expired rows, got %d", rows)
	}
	active, _ := h.svc.IsActive(context.Background(), 3)
	if !active {
		t.Fatal("period ending today should stay active")
	}
}
