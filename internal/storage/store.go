// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledger/internal/calculator"
	"github.com/mmynk/ledger/internal/models"
)

var (
	// ErrNotFound is returned when an entity does not exist for the given owner.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("duplicate entry")
)

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	Kind       models.TransactionKind
	BalanceID  string
	CategoryID string
	From       models.Date
	To         models.Date
}

// Reader is the owner-scoped read side of the ledger.
// Every lookup takes the owner and reports ErrNotFound for entities
// belonging to anyone else.
type Reader interface {
	GetBalance(ctx context.Context, ownerID, balanceID string) (*models.Balance, error)
	ListBalances(ctx context.Context, ownerID string) ([]*models.Balance, error)

	GetCategory(ctx context.Context, ownerID, categoryID string) (*models.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error)
	CountCategoryUses(ctx context.Context, ownerID, categoryID string) (int, error)

	GetTransaction(ctx context.Context, ownerID, transactionID string) (models.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string, filter TransactionFilter) ([]models.Transaction, error)

	// ListContributions returns the current contribution rows for a balance.
	ListContributions(ctx context.Context, balanceID string) ([]calculator.Contribution, error)

	// ListTransferCounterparts returns the other balances that share a
	// transfer with balanceID.
	ListTransferCounterparts(ctx context.Context, balanceID string) ([]string, error)
}

// Writer mutates the ledger. It is only reachable through a Tx so that
// every write happens inside an atomic unit.
type Writer interface {
	// CreateBalance persists a new balance with a zero amount.
	// The balance.ID and CreatedAt fields are populated by the store.
	CreateBalance(ctx context.Context, balance *models.Balance) error
	UpdateBalance(ctx context.Context, balance *models.Balance) error
	// DeleteBalance removes the balance and, by cascade, every transaction
	// referencing it.
	DeleteBalance(ctx context.Context, ownerID, balanceID string) error
	// SetBalanceAmount stores an aggregated amount. Only the aggregator calls it.
	SetBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error

	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, ownerID, categoryID string) error

	// InsertTransaction persists a new transaction.
	// The ID and CreatedAt fields are populated by the store.
	InsertTransaction(ctx context.Context, txn models.Transaction) error
	UpdateTransaction(ctx context.Context, txn models.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, transactionID string) error
}

// Tx is one atomic unit of work.
type Tx interface {
	Reader
	Writer
	Commit() error
	Rollback() error
}

// Store defines the storage backend.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger layer.
type Store interface {
	Reader

	// BeginTx starts an atomic unit holding the write lock until it
	// commits or rolls back.
	BeginTx(ctx context.Context) (Tx, error)

	// Close releases any resources held by the store.
	Close() error
}
