package ledger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledger/internal/metrics"
	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
)

const (
	opCreate        = "create"
	opUpdate        = "update"
	opDelete        = "delete"
	opDeleteBalance = "delete_balance"
	opRecompute     = "recompute"
)

// maxLockRetries bounds how often a unit restarts because the stored row
// touched balances the caller had not locked.
const maxLockRetries = 3

// Coordinator turns each transaction write into one atomic unit that
// persists the change and recomputes every affected balance. Either the
// row and all affected amounts commit together or nothing does.
type Coordinator struct {
	store      storage.Store
	validator  *Validator
	aggregator *Aggregator
	locks      *balanceLocks
	notifier   Notifier
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewCoordinator wires a Coordinator. notifier and m may be nil.
func NewCoordinator(store storage.Store, validator *Validator, aggregator *Aggregator, notifier Notifier, m *metrics.Metrics) *Coordinator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Coordinator{
		store:      store,
		validator:  validator,
		aggregator: aggregator,
		locks:      newBalanceLocks(),
		notifier:   notifier,
		metrics:    m,
		now:        time.Now,
	}
}

// unit tracks one attempt through the write states.
type unit struct {
	op    string
	state WriteState
}

func (u *unit) advance(state WriteState) {
	slog.Debug("Write state", "op", u.op, "from", u.state, "to", state)
	u.state = state
}

// fail records the terminal state for err. Rule violations end in Rejected;
// anything else, including failures before the row was written, rolls back.
func (u *unit) fail(err error) error {
	var (
		ve *ValidationError
		oe *OwnershipError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &oe), errors.Is(err, ErrNotFound) && u.state < Persisted:
		u.state = Rejected
	default:
		u.state = RolledBack
	}
	return &WriteError{State: u.state, Op: u.op, Err: err}
}

// lockSetGrew reports that the stored row references balances outside the
// locked set, so the unit must restart holding the union.
type lockSetGrew struct {
	ids []string
}

func (e *lockSetGrew) Error() string { return "affected balance set changed" }

// unitFunc performs the row change of one attempt inside tx and returns
// the balances that must be recomputed.
type unitFunc func(ctx context.Context, tx storage.Tx, u *unit) ([]string, error)

// run executes fn as an atomic unit while holding the locks of lockIDs.
func (c *Coordinator) run(ctx context.Context, op, ownerID string, lockIDs []string, fn unitFunc) ([]BalanceChange, error) {
	for attempt := 0; ; attempt++ {
		changes, state, err := c.attempt(ctx, op, ownerID, lockIDs, fn)
		var grew *lockSetGrew
		if errors.As(err, &grew) {
			if attempt < maxLockRetries {
				slog.Debug("Retrying with wider lock set", "op", op, "balances", grew.ids)
				lockIDs = grew.ids
				continue
			}
			state = RolledBack
			err = &WriteError{State: state, Op: op, Err: &StorageError{Op: "lock balances", Err: err}}
		}
		c.metrics.ObserveWrite(op, state.String())
		return changes, err
	}
}

func (c *Coordinator) attempt(ctx context.Context, op, ownerID string, lockIDs []string, fn unitFunc) (changes []BalanceChange, state WriteState, err error) {
	lockIDs = uniqueSorted(lockIDs)
	unlock := c.locks.lock(lockIDs)
	defer unlock()

	u := &unit{op: op, state: Draft}
	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return nil, RolledBack, u.fail(&StorageError{Op: "begin", Err: err})
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("Rollback failed", "op", op, "error", rbErr)
			}
			if u.state == RolledBack {
				slog.Warn("Write rolled back", "op", op, "owner_id", ownerID, "error", err)
			}
		}
	}()

	affected, err := fn(ctx, tx, u)
	if err != nil {
		return nil, u.state, u.fail(err)
	}
	affected = uniqueSorted(affected)
	if missing := uncovered(lockIDs, affected); len(missing) > 0 {
		return nil, u.state, &lockSetGrew{ids: uniqueSorted(append(lockIDs, missing...))}
	}

	changes, err = c.propagate(ctx, tx, ownerID, affected)
	if err != nil {
		err = u.fail(err)
		return nil, u.state, err
	}
	u.advance(Propagated)

	if err = tx.Commit(); err != nil {
		err = u.fail(&StorageError{Op: "commit", Err: err})
		return nil, u.state, err
	}
	u.advance(Committed)
	slog.Info("Write committed", "op", op, "owner_id", ownerID, "balances", affected)
	return changes, Committed, nil
}

// propagate recomputes every affected balance inside tx in sorted order.
func (c *Coordinator) propagate(ctx context.Context, tx storage.Tx, ownerID string, balanceIDs []string) ([]BalanceChange, error) {
	changes := make([]BalanceChange, 0, len(balanceIDs))
	for _, id := range balanceIDs {
		amount, err := c.aggregator.Recompute(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		b, err := tx.GetBalance(ctx, ownerID, id)
		if err != nil {
			return nil, &AggregationError{BalanceID: id, Err: err}
		}
		changes = append(changes, BalanceChange{BalanceID: id, Amount: amount, Currency: b.Currency})
	}
	return changes, nil
}

func (c *Coordinator) notify(ctx context.Context, event ChangeEvent) {
	event.At = c.now()
	if err := c.notifier.BalancesChanged(ctx, event); err != nil {
		slog.Warn("Balance notification failed", "event", event.Type, "owner_id", event.OwnerID, "error", err)
	}
}

// Create validates d and records it for ownerID.
func (c *Coordinator) Create(ctx context.Context, ownerID string, d models.TransactionDraft) (models.Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	txn, err := c.validator.Structure(d)
	if err != nil {
		return nil, c.rejected(opCreate, err)
	}
	txn.Base().OwnerID = ownerID

	changes, err := c.run(ctx, opCreate, ownerID, txn.BalanceIDs(), func(ctx context.Context, tx storage.Tx, u *unit) ([]string, error) {
		if err := c.validator.References(ctx, tx, ownerID, txn); err != nil {
			return nil, err
		}
		u.advance(Validated)
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return nil, storageErr("insert transaction", err)
		}
		u.advance(Persisted)
		return txn.BalanceIDs(), nil
	})
	if err != nil {
		return nil, err
	}

	c.notify(ctx, ChangeEvent{Type: TransactionCreated, OwnerID: ownerID, TransactionID: txn.Base().ID, Balances: changes})
	return txn, nil
}

// Update merges patch onto the stored transaction, validates the result
// with the same rules as Create and recomputes the balances referenced
// before and after the change.
func (c *Coordinator) Update(ctx context.Context, ownerID, transactionID string, patch models.TransactionPatch) (models.Transaction, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	old, err := c.store.GetTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return nil, c.rejected(opUpdate, storageErr("get transaction", err))
	}
	next, err := c.merge(old, patch)
	if err != nil {
		return nil, c.rejected(opUpdate, err)
	}

	lockIDs := append(old.BalanceIDs(), next.BalanceIDs()...)
	changes, err := c.run(ctx, opUpdate, ownerID, lockIDs, func(ctx context.Context, tx storage.Tx, u *unit) ([]string, error) {
		// Merge again against the row as it is now; the pre-read only
		// chose the locks.
		current, err := tx.GetTransaction(ctx, ownerID, transactionID)
		if err != nil {
			return nil, storageErr("get transaction", err)
		}
		next, err = c.merge(current, patch)
		if err != nil {
			return nil, err
		}
		if err := c.validator.References(ctx, tx, ownerID, next); err != nil {
			return nil, err
		}
		u.advance(Validated)
		if err := tx.UpdateTransaction(ctx, next); err != nil {
			return nil, storageErr("update transaction", err)
		}
		u.advance(Persisted)
		return append(current.BalanceIDs(), next.BalanceIDs()...), nil
	})
	if err != nil {
		return nil, err
	}

	c.notify(ctx, ChangeEvent{Type: TransactionUpdated, OwnerID: ownerID, TransactionID: transactionID, Balances: changes})
	return next, nil
}

func (c *Coordinator) merge(current models.Transaction, patch models.TransactionPatch) (models.Transaction, error) {
	if patch.Kind != nil && *patch.Kind != current.Kind() {
		return nil, invalid("kind", ImmutableKind, "cannot change %s to %s", current.Kind(), *patch.Kind)
	}
	next, err := c.validator.Structure(patch.Apply(current.Draft()))
	if err != nil {
		return nil, err
	}
	base, cur := next.Base(), current.Base()
	base.ID = cur.ID
	base.OwnerID = cur.OwnerID
	base.CreatedAt = cur.CreatedAt
	return next, nil
}

// Delete removes a transaction and recomputes the balances it referenced.
func (c *Coordinator) Delete(ctx context.Context, ownerID, transactionID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	old, err := c.store.GetTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return c.rejected(opDelete, storageErr("get transaction", err))
	}

	changes, err := c.run(ctx, opDelete, ownerID, old.BalanceIDs(), func(ctx context.Context, tx storage.Tx, u *unit) ([]string, error) {
		current, err := tx.GetTransaction(ctx, ownerID, transactionID)
		if err != nil {
			return nil, storageErr("get transaction", err)
		}
		u.advance(Validated)
		if err := tx.DeleteTransaction(ctx, ownerID, transactionID); err != nil {
			return nil, storageErr("delete transaction", err)
		}
		u.advance(Persisted)
		return current.BalanceIDs(), nil
	})
	if err != nil {
		return err
	}

	c.notify(ctx, ChangeEvent{Type: TransactionDeleted, OwnerID: ownerID, TransactionID: transactionID, Balances: changes})
	return nil
}

// DeleteBalance removes a balance with every transaction referencing it and
// recomputes the other side of each removed transfer in the same unit.
func (c *Coordinator) DeleteBalance(ctx context.Context, ownerID, balanceID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	if _, err := c.store.GetBalance(ctx, ownerID, balanceID); err != nil {
		return c.rejected(opDeleteBalance, storageErr("get balance", err))
	}
	counterparts, err := c.store.ListTransferCounterparts(ctx, balanceID)
	if err != nil {
		return c.rejected(opDeleteBalance, storageErr("list transfer counterparts", err))
	}

	changes, err := c.run(ctx, opDeleteBalance, ownerID, append(counterparts, balanceID), func(ctx context.Context, tx storage.Tx, u *unit) ([]string, error) {
		if _, err := tx.GetBalance(ctx, ownerID, balanceID); err != nil {
			return nil, storageErr("get balance", err)
		}
		current, err := tx.ListTransferCounterparts(ctx, balanceID)
		if err != nil {
			return nil, storageErr("list transfer counterparts", err)
		}
		u.advance(Validated)
		if err := tx.DeleteBalance(ctx, ownerID, balanceID); err != nil {
			return nil, storageErr("delete balance", err)
		}
		u.advance(Persisted)
		return current, nil
	})
	if err != nil {
		return err
	}

	c.notify(ctx, ChangeEvent{Type: BalanceDeleted, OwnerID: ownerID, BalanceID: balanceID, Balances: changes})
	return nil
}

// Recompute re-derives one balance of ownerID from its transactions and
// stores the result in its own atomic unit.
func (c *Coordinator) Recompute(ctx context.Context, ownerID, balanceID string) (decimal.Decimal, error) {
	if ownerID == "" {
		return decimal.Zero, ErrUnauthenticated
	}
	changes, err := c.run(ctx, opRecompute, ownerID, []string{balanceID}, func(ctx context.Context, tx storage.Tx, u *unit) ([]string, error) {
		if _, err := tx.GetBalance(ctx, ownerID, balanceID); err != nil {
			return nil, storageErr("get balance", err)
		}
		u.advance(Validated)
		return []string{balanceID}, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return changes[0].Amount, nil
}

// rejected reports a failure that happened before any atomic unit began.
func (c *Coordinator) rejected(op string, err error) error {
	c.metrics.ObserveWrite(op, Rejected.String())
	return &WriteError{State: Rejected, Op: op, Err: err}
}

// uncovered returns the ids of want that are missing from the sorted held set.
func uncovered(held, want []string) []string {
	var missing []string
	for _, id := range want {
		if _, found := slices.BinarySearch(held, id); !found {
			missing = append(missing, id)
		}
	}
	return missing
}
