// Package ledger keeps balance amounts consistent with the transactions
// that reference them.
//
// Every write to a transaction runs as a single atomic unit: the row change
// is persisted and every balance referenced before or after the change is
// recomputed from its current transactions, then the unit commits. A
// failure anywhere rolls the whole unit back, so a transfer never updates
// one side without the other.
//
// All operations are scoped to an owner. Entities belonging to another
// owner are reported as ErrNotFound.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/ledger/internal/metrics"
	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
)

const defaultReconcileWorkers = 4

// Options configures a Ledger. The zero value is usable.
type Options struct {
	Config           Config
	Notifier         Notifier
	Metrics          *metrics.Metrics
	ReconcileWorkers int
}

// Ledger is the entry point for every balance, category and transaction
// operation.
type Ledger struct {
	store       storage.Store
	cfg         Config
	validator   *Validator
	coordinator *Coordinator
	workers     int
}

// New creates a Ledger on top of store.
func New(store storage.Store, opts Options) *Ledger {
	validator := NewValidator(opts.Config)
	workers := opts.ReconcileWorkers
	if workers <= 0 {
		workers = defaultReconcileWorkers
	}
	return &Ledger{
		store:       store,
		cfg:         validator.cfg,
		validator:   validator,
		coordinator: NewCoordinator(store, validator, NewAggregator(opts.Metrics), opts.Notifier, opts.Metrics),
		workers:     workers,
	}
}

// Currencies returns the accepted currency codes.
func (l *Ledger) Currencies() []string {
	return l.cfg.Currencies.Codes()
}

// Validate checks a draft without persisting anything.
func (l *Ledger) Validate(ctx context.Context, ownerID string, d models.TransactionDraft) (models.Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return l.validator.Validate(ctx, l.store, ownerID, d)
}

// CreateTransaction records a new transaction and recomputes its balances.
func (l *Ledger) CreateTransaction(ctx context.Context, ownerID string, d models.TransactionDraft) (models.Transaction, error) {
	return l.coordinator.Create(ctx, ownerID, d)
}

// UpdateTransaction applies patch to a stored transaction.
func (l *Ledger) UpdateTransaction(ctx context.Context, ownerID, transactionID string, patch models.TransactionPatch) (models.Transaction, error) {
	return l.coordinator.Update(ctx, ownerID, transactionID, patch)
}

// DeleteTransaction removes a transaction.
func (l *Ledger) DeleteTransaction(ctx context.Context, ownerID, transactionID string) error {
	return l.coordinator.Delete(ctx, ownerID, transactionID)
}

func (l *Ledger) GetTransaction(ctx context.Context, ownerID, transactionID string) (models.Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	txn, err := l.store.GetTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return nil, storageErr("get transaction", err)
	}
	return txn, nil
}

func (l *Ledger) ListTransactions(ctx context.Context, ownerID string, filter storage.TransactionFilter) ([]models.Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	txns, err := l.store.ListTransactions(ctx, ownerID, filter)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	return txns, nil
}

// Recompute re-derives one balance from its transactions.
func (l *Ledger) Recompute(ctx context.Context, ownerID, balanceID string) (decimal.Decimal, error) {
	return l.coordinator.Recompute(ctx, ownerID, balanceID)
}

// ReconcileResult compares a stored amount with its recomputed value.
type ReconcileResult struct {
	BalanceID string
	Name      string
	Before    decimal.Decimal
	After     decimal.Decimal
}

// Drifted reports whether the stored amount was wrong.
func (r ReconcileResult) Drifted() bool {
	return !r.Before.Equal(r.After)
}

// Reconcile recomputes every balance of ownerID, each in its own atomic
// unit, and reports the amounts before and after. Results keep the order
// of ListBalances.
func (l *Ledger) Reconcile(ctx context.Context, ownerID string) ([]ReconcileResult, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	balances, err := l.store.ListBalances(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list balances", err)
	}

	results := make([]ReconcileResult, len(balances))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, b := range balances {
		g.Go(func() error {
			after, err := l.coordinator.Recompute(ctx, ownerID, b.ID)
			if err != nil {
				return err
			}
			results[i] = ReconcileResult{BalanceID: b.ID, Name: b.Name, Before: b.Amount, After: after}
			if results[i].Drifted() {
				slog.Warn("Balance drift corrected", "balance_id", b.ID, "before", b.Amount, "after", after)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CreateBalance creates a balance with a zero amount.
func (l *Ledger) CreateBalance(ctx context.Context, ownerID, name, currency string) (*models.Balance, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	name, code, err := l.validator.BalanceFields(name, currency)
	if err != nil {
		return nil, err
	}
	balance := &models.Balance{OwnerID: ownerID, Name: name, Currency: code}
	err = l.inTx(ctx, "create balance", func(tx storage.Tx) error {
		return tx.CreateBalance(ctx, balance)
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// UpdateBalance changes the name and/or the currency label of a balance.
// Nil fields keep their stored value. The amount is never touched.
func (l *Ledger) UpdateBalance(ctx context.Context, ownerID, balanceID string, name, currency *string) (*models.Balance, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	var balance *models.Balance
	err := l.inTx(ctx, "update balance", func(tx storage.Tx) error {
		current, err := tx.GetBalance(ctx, ownerID, balanceID)
		if err != nil {
			return err
		}
		newName, newCurrency := current.Name, string(current.Currency)
		if name != nil {
			newName = *name
		}
		if currency != nil {
			newCurrency = *currency
		}
		n, code, err := l.validator.BalanceFields(newName, newCurrency)
		if err != nil {
			return err
		}
		current.Name, current.Currency = n, code
		if err := tx.UpdateBalance(ctx, current); err != nil {
			return err
		}
		balance = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// DeleteBalance removes a balance and every transaction that references it.
func (l *Ledger) DeleteBalance(ctx context.Context, ownerID, balanceID string) error {
	return l.coordinator.DeleteBalance(ctx, ownerID, balanceID)
}

func (l *Ledger) GetBalance(ctx context.Context, ownerID, balanceID string) (*models.Balance, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	b, err := l.store.GetBalance(ctx, ownerID, balanceID)
	if err != nil {
		return nil, storageErr("get balance", err)
	}
	return b, nil
}

func (l *Ledger) ListBalances(ctx context.Context, ownerID string) ([]*models.Balance, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	balances, err := l.store.ListBalances(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list balances", err)
	}
	return balances, nil
}

// CreateCategory creates a category. Names are unique per owner.
func (l *Ledger) CreateCategory(ctx context.Context, ownerID, name string) (*models.Category, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	name, err := l.validator.CategoryName(name)
	if err != nil {
		return nil, err
	}
	category := &models.Category{OwnerID: ownerID, Name: name}
	err = l.inTx(ctx, "create category", func(tx storage.Tx) error {
		return tx.CreateCategory(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// RenameCategory changes the name of a category.
func (l *Ledger) RenameCategory(ctx context.Context, ownerID, categoryID, name string) (*models.Category, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	name, err := l.validator.CategoryName(name)
	if err != nil {
		return nil, err
	}
	var category *models.Category
	err = l.inTx(ctx, "rename category", func(tx storage.Tx) error {
		current, err := tx.GetCategory(ctx, ownerID, categoryID)
		if err != nil {
			return err
		}
		current.Name = name
		if err := tx.UpdateCategory(ctx, current); err != nil {
			return err
		}
		category = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category. While categories are required it
// fails with ErrCategoryInUse if any transaction references it; otherwise
// those transactions become uncategorized.
func (l *Ledger) DeleteCategory(ctx context.Context, ownerID, categoryID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	return l.inTx(ctx, "delete category", func(tx storage.Tx) error {
		if _, err := tx.GetCategory(ctx, ownerID, categoryID); err != nil {
			return err
		}
		if l.cfg.RequireCategory {
			n, err := tx.CountCategoryUses(ctx, ownerID, categoryID)
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrCategoryInUse
			}
		}
		return tx.DeleteCategory(ctx, ownerID, categoryID)
	})
}

func (l *Ledger) GetCategory(ctx context.Context, ownerID, categoryID string) (*models.Category, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	c, err := l.store.GetCategory(ctx, ownerID, categoryID)
	if err != nil {
		return nil, storageErr("get category", err)
	}
	return c, nil
}

func (l *Ledger) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	categories, err := l.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	return categories, nil
}

// inTx runs fn in a transaction that commits when fn succeeds.
// Store errors are wrapped in a StorageError; duplicates become a
// DuplicateName validation error.
func (l *Ledger) inTx(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return &StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return invalid("name", DuplicateName, "already exists")
		}
		if errors.Is(err, ErrCategoryInUse) {
			return err
		}
		return storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: op, Err: err}
	}
	return nil
}
