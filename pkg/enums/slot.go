package enums

import "fmt"

// SlotFrequency controls how often a recurring slot produces collections.
type SlotFrequency string

const (
	SlotFrequencyWeekly      SlotFrequency = "weekly"
	SlotFrequencyFortnightly SlotFrequency = "fortnightly"
	SlotFrequencyMonthly     SlotFrequency = "monthly"
)

var validSlotFrequencies = []SlotFrequency{
	SlotFrequencyWeekly,
	SlotFrequencyFortnightly,
	SlotFrequencyMonthly,
}

// String implements fmt.Stringer.
func (f SlotFrequency) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f SlotFrequency) IsValid() bool {
	for _, candidate := range validSlotFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// StepDays is the distance between consecutive occurrences.
func (f SlotFrequency) StepDays() int {
	switch f {
	case SlotFrequencyFortnightly:
		return 14
	case SlotFrequencyMonthly:
		return 28
	default:
		return 7
	}
}

// ParseSlotFrequency converts raw input into a SlotFrequency.
func ParseSlotFrequency(value string) (SlotFrequency, error) {
	for _, candidate := range validSlotFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid slot frequency %q", value)
}

// SlotStatus is the lifecycle of a recurring slot.
type SlotStatus string

const (
	SlotStatusActive   SlotStatus = "active"
	SlotStatusPaused   SlotStatus = "paused"
	SlotStatusCanceled SlotStatus = "canceled"
)

var validSlotStatuses = []SlotStatus{
	SlotStatusActive,
	SlotStatusPaused,
	SlotStatusCanceled,
}

// String implements fmt.Stringer.
func (s SlotStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SlotStatus) IsValid() bool {
	for _, candidate := range validSlotStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSlotStatus converts raw input into a SlotStatus.
func ParseSlotStatus(value string) (SlotStatus, error) {
	for _, candidate := range validSlotStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid slot status %q", value)
}
