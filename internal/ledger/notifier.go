package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledger/internal/models"
)

// EventType names the write that changed balances.
type EventType string

const (
	TransactionCreated EventType = "transaction_created"
	TransactionUpdated EventType = "transaction_updated"
	TransactionDeleted EventType = "transaction_deleted"
	BalanceDeleted     EventType = "balance_deleted"
	BalanceRecomputed  EventType = "balance_recomputed"
)

// BalanceChange is the committed amount of one balance.
type BalanceChange struct {
	BalanceID string
	Amount    decimal.Decimal
	Currency  models.Currency
}

// ChangeEvent describes one committed atomic unit.
type ChangeEvent struct {
	Type          EventType
	OwnerID       string
	TransactionID string
	// BalanceID is set for balance-level events.
	BalanceID string
	Balances  []BalanceChange
	At        time.Time
}

// Notifier receives events after commit. A failing notifier never undoes
// the write it reports.
type Notifier interface {
	BalancesChanged(ctx context.Context, event ChangeEvent) error
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) BalancesChanged(context.Context, ChangeEvent) error { return nil }
