package models

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Driver{},
		&ReturnPoint{},
		&RecurringSlot{},
		&Collection{},
		&WalletAccount{},
		&WalletTransaction{},
		&ProofSequence{},
		&DriverEarning{},
		&DriverPayout{},
		&Subscription{},
		&Notification{},
		&Claim{},
	}
}
