package ledger

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/money"
)

const (
	maxNoteLength     = 255
	maxProofRefLength = 64
)

func creditNote(collectionID uint, amountCents int64, driverID *uint, proofURL *string) string {
	driver := "-"
	if driverID != nil {
		driver = fmt.Sprintf("%d", *driverID)
	}
	return truncate(fmt.Sprintf("Credit for collection #%d (voucher %s) driver_id=%s proof=%s",
		collectionID, money.Format(amountCents), driver, ProofBasename(proofURL)), maxNoteLength)
}

func donationNote(collectionID uint, amountCents int64, charity *enums.Charity) string {
	var c enums.Charity
	if charity != nil {
		c = *charity
	}
	return truncate(fmt.Sprintf("Donated to %s for collection #%d (%s)",
		c.DisplayName(), collectionID, money.Format(amountCents)), maxNoteLength)
}

func debitDonationNote(charity enums.Charity, amountCents int64, proofRef string) string {
	return truncate(fmt.Sprintf("Donation to %s (%s) ref=%s",
		charity.DisplayName(), money.Format(amountCents), proofRef), maxNoteLength)
}

func redeemNote(note string, amountCents int64, proofRef string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		note = "Voucher redemption"
	}
	return truncate(fmt.Sprintf("%s (%s) ref=%s", note, money.Format(amountCents), proofRef), maxNoteLength)
}

// ProofBasename keeps the last path element of a proof url, without query,
// truncated for display. Missing proofs render as "-".
func ProofBasename(proofURL *string) string {
	if proofURL == nil || strings.TrimSpace(*proofURL) == "" {
		return "-"
	}
	raw := strings.TrimSpace(*proofURL)
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return "-"
	}
	return truncate(base, maxProofRefLength)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
