package enums

import "fmt"

// SubscriptionStatus mirrors the user's billing state.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusCanceled,
	SubscriptionStatusInactive,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// GrantsBooking reports whether the status may still book, subject to the period end.
func (s SubscriptionStatus) GrantsBooking() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusCanceled
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}

// PlanCode identifies a purchasable subscription plan.
type PlanCode string

const (
	PlanCodeWeekly  PlanCode = "weekly"
	PlanCodeMonthly PlanCode = "monthly"
	PlanCodeYearly  PlanCode = "yearly"
)

var validPlanCodes = []PlanCode{PlanCodeWeekly, PlanCodeMonthly, PlanCodeYearly}

// String implements fmt.Stringer.
func (p PlanCode) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PlanCode) IsValid() bool {
	for _, candidate := range validPlanCodes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanCode converts raw input into a PlanCode.
func ParsePlanCode(value string) (PlanCode, error) {
	for _, candidate := range validPlanCodes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan code %q", value)
}
