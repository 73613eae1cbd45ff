package models

import "github.com/shopspring/decimal"

// Balance is a named account owned by a single user.
type Balance struct {
	// ID is the unique identifier for the balance (UUID format).
	ID string

	// OwnerID is the user who owns the balance.
	OwnerID string

	// Name is the display name (e.g., "Checking", "Savings").
	Name string

	// Amount is the aggregate of every transaction referencing this balance.
	// It is never set by clients; only the aggregator writes it.
	Amount decimal.Decimal

	// Currency is a label only. Amounts are never converted.
	Currency Currency

	// CreatedAt is the Unix timestamp when the balance was created.
	CreatedAt int64
}
