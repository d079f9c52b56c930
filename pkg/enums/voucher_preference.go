package enums

import "fmt"

// VoucherPreference selects where a completed collection's voucher goes.
type VoucherPreference string

const (
	VoucherPreferenceWallet VoucherPreference = "wallet"
	VoucherPreferenceDonate VoucherPreference = "donate"
)

var validVoucherPreferences = []VoucherPreference{
	VoucherPreferenceWallet,
	VoucherPreferenceDonate,
}

// String implements fmt.Stringer.
func (v VoucherPreference) String() string {
	return string(v)
}

// IsValid reports whether the value is known.
func (v VoucherPreference) IsValid() bool {
	for _, candidate := range validVoucherPreferences {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoucherPreference converts raw input into a VoucherPreference.
func ParseVoucherPreference(value string) (VoucherPreference, error) {
	for _, candidate := range validVoucherPreferences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher preference %q", value)
}
