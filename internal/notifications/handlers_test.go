package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeSubscriber struct {
	names []enums.EventName
}

func (f *fakeSubscriber) Subscribe(name enums.EventName, handler events.Handler) {
	f.names = append(f.names, name)
}

func newHandlers(t *testing.T, repo *fakeRepository, mailer *fakeMailer) *Handlers {
	t.Helper()
	h, err := NewHandlers(repo, mailer, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return h
}

func TestRegisterCoversEveryEvent(t *testing.T) {
	sub := &fakeSubscriber{}
	newHandlers(t, &fakeRepository{}, &fakeMailer{}).Register(sub)
	assert.ElementsMatch(t, enums.AllEventNames, sub.names)
}

func TestHandleWalletCredit(t *testing.T) {
	repo := &fakeRepository{}
	mailer := &fakeMailer{}
	h := newHandlers(t, repo, mailer)

	err := h.Handle(context.Background(), events.Event{
		Name: enums.EventWalletCreditCreated,
		Payload: events.Payload{
			"user_id":         uint(4),
			"email":           "owner@example.com",
			"amount_eur":      3.0,
			"new_balance_eur": 5.5,
			"proof_ref":       "receipt-1.jpg",
			"ts":              "2025-03-10T12:00:00Z",
		},
	})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "owner@example.com", mailer.sent[0].to)
	assert.Equal(t, "Voucher Added", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Amount: €3.00")
	assert.Contains(t, mailer.sent[0].body, "New balance: €5.50")
	assert.Contains(t, mailer.sent[0].body, "Reference: receipt-1.jpg")

	require.Len(t, repo.created, 1)
	assert.Equal(t, uint(4), *repo.created[0].UserID)
	assert.Equal(t, "Voucher Added", repo.created[0].Title)
}

func TestHandleSubscriptionConfirmedWithoutInvoice(t *testing.T) {
	mailer := &fakeMailer{}
	h := newHandlers(t, &fakeRepository{}, mailer)

	require.NoError(t, h.Handle(context.Background(), events.Event{
		Name:    enums.EventSubscriptionConfirmed,
		Payload: events.Payload{"email": "sub@example.com", "plan_code": "monthly", "amount_eur": 9.99},
	}))
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, "Plan: monthly")
	assert.Contains(t, mailer.sent[0].body, "Amount: €9.99")
	assert.Contains(t, mailer.sent[0].body, "Invoice ID: -")
}

func TestHandleCombinesFailures(t *testing.T) {
	repo := &fakeRepository{createErr: errors.New("insert failed")}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	h := newHandlers(t, repo, mailer)

	err := h.Handle(context.Background(), events.Event{
		Name:    enums.EventClaimResolved,
		Payload: events.Payload{"user_id": uint(1), "email": "a@example.com", "claim_id": uint(3)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
	assert.Contains(t, err.Error(), "smtp down")
}

func TestHandleSkipsMissingRecipient(t *testing.T) {
	repo := &fakeRepository{}
	mailer := &fakeMailer{}
	h := newHandlers(t, repo, mailer)

	require.NoError(t, h.Handle(context.Background(), events.Event{
		Name:    enums.EventCollectionCollected,
		Payload: events.Payload{"collection_id": uint(2), "driver_name": "Driver #1"},
	}))
	assert.Empty(t, mailer.sent)
	assert.Empty(t, repo.created)
}
