package enums

import "fmt"

// WalletTxKind tags a ledger entry.
type WalletTxKind string

const (
	WalletTxKindCollectionCredit WalletTxKind = "collection_credit"
	WalletTxKindDonation         WalletTxKind = "donation"
	WalletTxKindDebitDonation    WalletTxKind = "debit_donation"
	WalletTxKindDebitRedeem      WalletTxKind = "debit_redeem"
	WalletTxKindManualAdjustment WalletTxKind = "manual_adjustment"
)

var validWalletTxKinds = []WalletTxKind{
	WalletTxKindCollectionCredit,
	WalletTxKindDonation,
	WalletTxKindDebitDonation,
	WalletTxKindDebitRedeem,
	WalletTxKindManualAdjustment,
}

// String implements fmt.Stringer.
func (k WalletTxKind) String() string {
	return string(k)
}

// IsValid reports whether the value is known.
func (k WalletTxKind) IsValid() bool {
	for _, candidate := range validWalletTxKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsCollectionCredit reports whether the kind is produced by completing a collection.
func (k WalletTxKind) IsCollectionCredit() bool {
	return k == WalletTxKindCollectionCredit || k == WalletTxKindDonation
}

// ProofPrefix returns the proof-reference prefix for debit kinds.
func (k WalletTxKind) ProofPrefix() (string, bool) {
	switch k {
	case WalletTxKindDebitDonation:
		return "DON", true
	case WalletTxKindDebitRedeem:
		return "RED", true
	}
	return "", false
}

// ParseWalletTxKind converts raw input into a WalletTxKind.
func ParseWalletTxKind(value string) (WalletTxKind, error) {
	for _, candidate := range validWalletTxKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction kind %q", value)
}
