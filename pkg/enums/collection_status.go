package enums

import "fmt"

// CollectionStatus tracks a pickup through its lifecycle.
type CollectionStatus string

const (
	CollectionStatusScheduled CollectionStatus = "scheduled"
	CollectionStatusAssigned  CollectionStatus = "assigned"
	CollectionStatusCollected CollectionStatus = "collected"
	CollectionStatusCompleted CollectionStatus = "completed"
	CollectionStatusCanceled  CollectionStatus = "canceled"
)

var validCollectionStatuses = []CollectionStatus{
	CollectionStatusScheduled,
	CollectionStatusAssigned,
	CollectionStatusCollected,
	CollectionStatusCompleted,
	CollectionStatusCanceled,
}

var collectionTransitions = map[CollectionStatus][]CollectionStatus{
	CollectionStatusScheduled: {CollectionStatusAssigned, CollectionStatusCanceled},
	CollectionStatusAssigned:  {CollectionStatusCollected, CollectionStatusCanceled},
	CollectionStatusCollected: {CollectionStatusCompleted},
	CollectionStatusCompleted: nil,
	CollectionStatusCanceled:  nil,
}

// String implements fmt.Stringer.
func (s CollectionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s CollectionStatus) IsValid() bool {
	for _, candidate := range validCollectionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s CollectionStatus) IsTerminal() bool {
	return s.IsValid() && len(collectionTransitions[s]) == 0
}

// IsCancelable reports whether the owner may still cancel.
func (s CollectionStatus) IsCancelable() bool {
	return s.CanTransitionTo(CollectionStatusCanceled)
}

// AllowedTransitions returns the statuses reachable in one step.
func (s CollectionStatus) AllowedTransitions() []CollectionStatus {
	next := collectionTransitions[s]
	out := make([]CollectionStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s CollectionStatus) CanTransitionTo(next CollectionStatus) bool {
	for _, candidate := range collectionTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseCollectionStatus converts raw input into a CollectionStatus.
func ParseCollectionStatus(value string) (CollectionStatus, error) {
	for _, candidate := range validCollectionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collection status %q", value)
}
