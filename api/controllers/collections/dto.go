package collections

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/money"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

type collectionResponse struct {
	ID                 uint                    `json:"id"`
	UserID             uint                    `json:"userId"`
	ReturnPointID      uint                    `json:"returnPointId"`
	DriverID           *uint                   `json:"driverId,omitempty"`
	RecurringSlotID    *uint                   `json:"recurringSlotId,omitempty"`
	ScheduledAt        time.Time               `json:"scheduledAt"`
	Status             enums.CollectionStatus  `json:"status"`
	BagCount           int                     `json:"bagCount"`
	Notes              *string                 `json:"notes,omitempty"`
	PickupAddress      *string                 `json:"pickupAddress,omitempty"`
	VoucherPreference  enums.VoucherPreference `json:"voucherPreference"`
	CharityID          *enums.Charity          `json:"charityId,omitempty"`
	CollectionType     string                  `json:"collectionType"`
	ProofURL           *string                 `json:"proofUrl,omitempty"`
	VoucherAmountCents *int64                  `json:"voucherAmountCents,omitempty"`
	VoucherAmountEUR   *decimal.Decimal        `json:"voucherAmountEur,omitempty"`
	Archived           bool                    `json:"archived"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

func newCollectionResponse(c *models.Collection) collectionResponse {
	resp := collectionResponse{
		ID:                 c.ID,
		UserID:             c.UserID,
		ReturnPointID:      c.ReturnPointID,
		DriverID:           c.DriverID,
		RecurringSlotID:    c.RecurringSlotID,
		ScheduledAt:        c.ScheduledAt,
		Status:             c.Status,
		BagCount:           c.BagCount,
		Notes:              c.Notes,
		PickupAddress:      c.PickupAddress,
		VoucherPreference:  c.VoucherPreference,
		CharityID:          c.CharityID,
		CollectionType:     c.CollectionType,
		ProofURL:           c.ProofURL,
		VoucherAmountCents: c.VoucherAmountCents,
		Archived:           c.Archived,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if c.VoucherAmountCents != nil {
		eur := money.EUR(*c.VoucherAmountCents)
		resp.VoucherAmountEUR = &eur
	}
	return resp
}

func newCollectionList(items []models.Collection) []collectionResponse {
	out := make([]collectionResponse, 0, len(items))
	for i := range items {
		out = append(out, newCollectionResponse(&items[i]))
	}
	return out
}

func newCollectionPage(page pagination.Page[models.Collection]) pagination.Page[collectionResponse] {
	return pagination.Page[collectionResponse]{
		Items:    newCollectionList(page.Items),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
}
