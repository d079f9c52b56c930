package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/greencredits/greencredits-backend/internal/ledger"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/money"
)

// publish adds the owner's id and email; events for unknown users are skipped.
func (s *service) publish(ctx context.Context, name enums.EventName, userID uint, payload events.Payload) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return
	}
	payload["user_id"] = userID
	payload["email"] = user.Email
	s.publisher.Publish(ctx, name, payload)
}

func (s *service) publishCollected(ctx context.Context, collection *models.Collection, driver *models.Driver) {
	s.publish(ctx, enums.EventCollectionCollected, collection.UserID, events.Payload{
		"collection_id": collection.ID,
		"driver_name":   s.driverName(ctx, driver),
	})
}

func (s *service) driverName(ctx context.Context, driver *models.Driver) string {
	if driver == nil {
		return "your driver"
	}
	if user, err := s.users.FindByID(ctx, driver.UserID); err == nil && user != nil && user.FullName != nil && *user.FullName != "" {
		return *user.FullName
	}
	return fmt.Sprintf("Driver #%d", driver.ID)
}

func (s *service) publishCompleted(ctx context.Context, collection *models.Collection, credited bool) {
	var amount int64
	if collection.VoucherAmountCents != nil {
		amount = *collection.VoucherAmountCents
	}
	proofURL := ""
	if collection.ProofURL != nil {
		proofURL = *collection.ProofURL
	}
	payload := events.Payload{
		"collection_id":      collection.ID,
		"proof_url":          proofURL,
		"voucher_amount_eur": money.EURFloat(amount),
		"voucher_preference": string(collection.VoucherPreference),
	}
	if collection.CharityID != nil {
		payload["charity_id"] = string(*collection.CharityID)
		payload["charity_name"] = collection.CharityID.DisplayName()
	}
	s.publish(ctx, enums.EventCollectionCompleted, collection.UserID, payload)

	if !credited || collection.VoucherPreference == enums.VoucherPreferenceDonate {
		return
	}
	balance, err := s.ledger.Balance(ctx, collection.UserID)
	if err != nil {
		return
	}
	s.publish(ctx, enums.EventWalletCreditCreated, collection.UserID, events.Payload{
		"collection_id":   collection.ID,
		"amount_eur":      money.EURFloat(amount),
		"new_balance_eur": money.EURFloat(balance.Cents),
		"proof_ref":       ledger.ProofBasename(collection.ProofURL),
		"ts":              s.now().UTC().Format(time.RFC3339),
	})
}
