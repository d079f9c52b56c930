package enums

// EventName identifies a dispatcher topic.
type EventName string

const (
	EventCollectionScheduled   EventName = "collection.scheduled"
	EventCollectionCollected   EventName = "collection.collected"
	EventCollectionCompleted   EventName = "collection.completed"
	EventWalletCreditCreated   EventName = "wallet.credit.created"
	EventWalletDebitDonated    EventName = "wallet.debit.donated"
	EventWalletDebitRedeemed   EventName = "wallet.debit.redeemed"
	EventSubscriptionConfirmed EventName = "subscription.confirmed"
	EventClaimResolved         EventName = "claim.resolved"
)

// AllEventNames lists every event the core publishes.
var AllEventNames = []EventName{
	EventCollectionScheduled,
	EventCollectionCollected,
	EventCollectionCompleted,
	EventWalletCreditCreated,
	EventWalletDebitDonated,
	EventWalletDebitRedeemed,
	EventSubscriptionConfirmed,
	EventClaimResolved,
}

// String implements fmt.Stringer.
func (e EventName) String() string {
	return string(e)
}

// IsValid reports whether the name is a known event.
func (e EventName) IsValid() bool {
	for _, candidate := range AllEventNames {
		if candidate == e {
			return true
		}
	}
	return false
}
