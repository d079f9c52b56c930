package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionStatusTransitions(t *testing.T) {
	cases := []struct {
		from    CollectionStatus
		to      CollectionStatus
		allowed bool
	}{
		{CollectionStatusScheduled, CollectionStatusAssigned, true},
		{CollectionStatusScheduled, CollectionStatusCanceled, true},
		{CollectionStatusScheduled, CollectionStatusCollected, false},
		{CollectionStatusScheduled, CollectionStatusCompleted, false},
		{CollectionStatusAssigned, CollectionStatusCollected, true},
		{CollectionStatusAssigned, CollectionStatusCanceled, true},
		{CollectionStatusAssigned, CollectionStatusScheduled, false},
		{CollectionStatusCollected, CollectionStatusCompleted, true},
		{CollectionStatusCollected, CollectionStatusCanceled, false},
		{CollectionStatusCompleted, CollectionStatusScheduled, false},
		{CollectionStatusCompleted, CollectionStatusCanceled, false},
		{CollectionStatusCanceled, CollectionStatusScheduled, false},
		{CollectionStatusCanceled, CollectionStatusAssigned, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCollectionStatusTerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range validCollectionStatuses {
		if !status.IsTerminal() {
			continue
		}
		for _, next := range validCollectionStatuses {
			assert.False(t, status.CanTransitionTo(next), "%s should be terminal", status)
		}
	}
	assert.True(t, CollectionStatusCompleted.IsTerminal())
	assert.True(t, CollectionStatusCanceled.IsTerminal())
	assert.False(t, CollectionStatusCollected.IsTerminal())
	assert.False(t, CollectionStatus("processed").IsTerminal())
}

func TestCollectionStatusCancelable(t *testing.T) {
	assert.True(t, CollectionStatusScheduled.IsCancelable())
	assert.True(t, CollectionStatusAssigned.IsCancelable())
	assert.False(t, CollectionStatusCollected.IsCancelable())
	assert.False(t, CollectionStatusCompleted.IsCancelable())
}

func TestParseCollectionStatus(t *testing.T) {
	got, err := ParseCollectionStatus("assigned")
	require.NoError(t, err)
	assert.Equal(t, CollectionStatusAssigned, got)

	_, err = ParseCollectionStatus("processed")
	assert.Error(t, err)
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	next := CollectionStatusScheduled.AllowedTransitions()
	require.Len(t, next, 2)
	next[0] = CollectionStatusCompleted
	assert.True(t, CollectionStatusScheduled.CanTransitionTo(CollectionStatusAssigned))
}

func TestSlotFrequencyStepDays(t *testing.T) {
	assert.Equal(t, 7, SlotFrequencyWeekly.StepDays())
	assert.Equal(t, 14, SlotFrequencyFortnightly.StepDays())
	assert.Equal(t, 28, SlotFrequencyMonthly.StepDays())
}

func TestWalletTxKindProofPrefix(t *testing.T) {
	prefix, ok := WalletTxKindDebitDonation.ProofPrefix()
	assert.True(t, ok)
	assert.Equal(t, "DON", prefix)

	prefix, ok = WalletTxKindDebitRedeem.ProofPrefix()
	assert.True(t, ok)
	assert.Equal(t, "RED", prefix)

	_, ok = WalletTxKindCollectionCredit.ProofPrefix()
	assert.False(t, ok)
}

func TestCharityDisplayName(t *testing.T) {
	assert.Equal(t, "Clean Coasts", CharityCleanCoasts.DisplayName())
	assert.Equal(t, "local_shelter", Charity("local_shelter").DisplayName())
	assert.Equal(t, "a charity", Charity("").DisplayName())
	assert.False(t, Charity("local_shelter").IsValid())
}
