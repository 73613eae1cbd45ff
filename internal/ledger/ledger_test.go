package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/ledger/internal/metrics"
	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
	"github.com/mmynk/ledger/internal/storage/sqlite"
)

const owner = "alice"

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestLedger(t *testing.T, opts Options) *Ledger {
	t.Helper()
	return New(newTestStore(t), opts)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func income(balanceID, amount string) models.TransactionDraft {
	return models.TransactionDraft{
		Kind:      models.KindIncomeOutcome,
		Type:      models.Income,
		BalanceID: balanceID,
		Amount:    amount,
		Date:      "2024-05-01",
		Currency:  "EUR",
	}
}

func outcome(balanceID, amount string) models.TransactionDraft {
	d := income(balanceID, amount)
	d.Type = models.Outcome
	return d
}

func transfer(from, to, amount string) models.TransactionDraft {
	return models.TransactionDraft{
		Kind:          models.KindTransfer,
		BalanceFromID: from,
		BalanceToID:   to,
		Amount:        amount,
		Date:          "2024-05-02",
		Currency:      "EUR",
	}
}

func mustBalance(t *testing.T, l *Ledger, name string) *models.Balance {
	t.Helper()
	b, err := l.CreateBalance(context.Background(), owner, name, "EUR")
	require.NoError(t, err)
	return b
}

func assertAmount(t *testing.T, l *Ledger, balanceID, want string) {
	t.Helper()
	b, err := l.GetBalance(context.Background(), owner, balanceID)
	require.NoError(t, err)
	assert.True(t, b.Amount.Equal(dec(want)), "balance %s: got %s, want %s", b.Name, b.Amount, want)
}

func TestCheckingSavingsScenario(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()

	checking := mustBalance(t, l, "Checking")
	savings := mustBalance(t, l, "Savings")
	assertAmount(t, l, checking.ID, "0.00")

	_, err := l.CreateTransaction(ctx, owner, income(checking.ID, "100.00"))
	require.NoError(t, err)
	assertAmount(t, l, checking.ID, "100.00")

	_, err = l.CreateTransaction(ctx, owner, outcome(checking.ID, "30.00"))
	require.NoError(t, err)
	assertAmount(t, l, checking.ID, "70.00")

	tr, err := l.CreateTransaction(ctx, owner, transfer(checking.ID, savings.ID, "20.00"))
	require.NoError(t, err)
	assertAmount(t, l, checking.ID, "50.00")
	assertAmount(t, l, savings.ID, "20.00")

	require.NoError(t, l.DeleteTransaction(ctx, owner, tr.Base().ID))
	assertAmount(t, l, checking.ID, "70.00")
	assertAmount(t, l, savings.ID, "0.00")
}

func TestUpdateRecomputesOldAndNewBalances(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	b := mustBalance(t, l, "B")

	txn, err := l.CreateTransaction(ctx, owner, income(a.ID, "40.00"))
	require.NoError(t, err)

	newBalance := b.ID
	newAmount := "15.5"
	updated, err := l.UpdateTransaction(ctx, owner, txn.Base().ID, models.TransactionPatch{
		BalanceID: &newBalance,
		Amount:    &newAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, txn.Base().ID, updated.Base().ID)
	assert.Equal(t, txn.Base().CreatedAt, updated.Base().CreatedAt)

	assertAmount(t, l, a.ID, "0")
	assertAmount(t, l, b.ID, "15.50")
}

func TestUpdateTransferOntoItself(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	b := mustBalance(t, l, "B")
	tr, err := l.CreateTransaction(ctx, owner, transfer(a.ID, b.ID, "10.00"))
	require.NoError(t, err)

	same := a.ID
	_, err = l.UpdateTransaction(ctx, owner, tr.Base().ID, models.TransactionPatch{BalanceToID: &same})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, SameBalanceTransfer, ve.Kind)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, Rejected, we.State)

	assertAmount(t, l, a.ID, "-10.00")
	assertAmount(t, l, b.ID, "10.00")
}

func TestUpdateCannotChangeKind(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	txn, err := l.CreateTransaction(ctx, owner, income(a.ID, "1.00"))
	require.NoError(t, err)

	kind := models.KindTransfer
	_, err = l.UpdateTransaction(ctx, owner, txn.Base().ID, models.TransactionPatch{Kind: &kind})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ImmutableKind, ve.Kind)
}

// faultyStore fails the nth SetBalanceAmount call across all its
// transactions.
type faultyStore struct {
	storage.Store
	failOn int32
	calls  atomic.Int32
}

var errInjected = errors.New("injected failure")

func (s *faultyStore) BeginTx(ctx context.Context) (storage.Tx, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, store: s}, nil
}

type faultyTx struct {
	storage.Tx
	store *faultyStore
}

func (t *faultyTx) SetBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error {
	if t.store.calls.Add(1) == t.store.failOn {
		return errInjected
	}
	return t.Tx.SetBalanceAmount(ctx, balanceID, amount)
}

func TestTransferAtomicity(t *testing.T) {
	store := &faultyStore{Store: newTestStore(t)}
	l := New(store, Options{})
	ctx := context.Background()

	checking := mustBalance(t, l, "Checking")
	savings := mustBalance(t, l, "Savings")
	_, err := l.CreateTransaction(ctx, owner, income(checking.ID, "100.00"))
	require.NoError(t, err)

	// The first recomputation of the transfer succeeds, the second fails.
	store.calls.Store(0)
	store.failOn = 2

	_, err = l.CreateTransaction(ctx, owner, transfer(checking.ID, savings.ID, "20.00"))
	require.Error(t, err)

	var ae *AggregationError
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, errInjected)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, RolledBack, we.State)

	assertAmount(t, l, checking.ID, "100.00")
	assertAmount(t, l, savings.ID, "0.00")

	txns, err := l.ListTransactions(ctx, owner, storage.TransactionFilter{Kind: models.KindTransfer})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestConcurrentIncomesConverge(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()
	b := mustBalance(t, l, "Checking")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.CreateTransaction(ctx, owner, income(b.ID, "1.25")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("CreateTransaction failed: %v", err)
	}

	assertAmount(t, l, b.ID, "25.00")
	assert.Zero(t, l.coordinator.locks.size(), "lock entries should be released")
}

func TestRecomputeIsIdempotent(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()
	b := mustBalance(t, l, "Checking")

	for _, d := range []models.TransactionDraft{income(b.ID, "10.10"), outcome(b.ID, "0.15"), income(b.ID, "0.05")} {
		_, err := l.CreateTransaction(ctx, owner, d)
		require.NoError(t, err)
	}

	first, err := l.Recompute(ctx, owner, b.ID)
	require.NoError(t, err)
	second, err := l.Recompute(ctx, owner, b.ID)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, first.String(), second.String())
	assert.True(t, first.Equal(dec("10.00")))
}

func TestOwnershipIsNotFound(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()
	b := mustBalance(t, l, "Checking")

	_, err := l.CreateTransaction(ctx, "mallory", income(b.ID, "5.00"))
	assert.ErrorIs(t, err, ErrNotFound)
	var oe *OwnershipError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "balance", oe.Entity)

	_, err = l.GetBalance(ctx, "mallory", b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Recompute(ctx, "mallory", b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assertAmount(t, l, b.ID, "0")
}

func TestUnauthenticated(t *testing.T) {
	l := newTestLedger(t, Options{})
	_, err := l.CreateTransaction(context.Background(), "", income("x", "1"))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = l.ListBalances(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDeleteBalanceRecomputesCounterparts(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()

	checking := mustBalance(t, l, "Checking")
	savings := mustBalance(t, l, "Savings")

	_, err := l.CreateTransaction(ctx, owner, income(savings.ID, "5.00"))
	require.NoError(t, err)
	_, err = l.CreateTransaction(ctx, owner, transfer(checking.ID, savings.ID, "20.00"))
	require.NoError(t, err)
	assertAmount(t, l, savings.ID, "25.00")

	require.NoError(t, l.DeleteBalance(ctx, owner, checking.ID))

	_, err = l.GetBalance(ctx, owner, checking.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assertAmount(t, l, savings.ID, "5.00")

	txns, err := l.ListTransactions(ctx, owner, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate name", func(t *testing.T) {
		l := newTestLedger(t, Options{})
		_, err := l.CreateCategory(ctx, owner, "Food")
		require.NoError(t, err)
		_, err = l.CreateCategory(ctx, owner, " Food ")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, DuplicateName, ve.Kind)
	})

	t.Run("required category in use", func(t *testing.T) {
		l := newTestLedger(t, Options{Config: Config{RequireCategory: true}})
		food, err := l.CreateCategory(ctx, owner, "Food")
		require.NoError(t, err)
		b := mustBalance(t, l, "Checking")

		d := outcome(b.ID, "12.00")
		_, err = l.CreateTransaction(ctx, owner, d)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, MissingCategory, ve.Kind)

		d.CategoryID = food.ID
		_, err = l.CreateTransaction(ctx, owner, d)
		require.NoError(t, err)

		assert.ErrorIs(t, l.DeleteCategory(ctx, owner, food.ID), ErrCategoryInUse)
	})

	t.Run("optional category cleared on delete", func(t *testing.T) {
		l := newTestLedger(t, Options{})
		food, err := l.CreateCategory(ctx, owner, "Food")
		require.NoError(t, err)
		b := mustBalance(t, l, "Checking")

		d := outcome(b.ID, "12.00")
		d.CategoryID = food.ID
		txn, err := l.CreateTransaction(ctx, owner, d)
		require.NoError(t, err)

		require.NoError(t, l.DeleteCategory(ctx, owner, food.ID))
		got, err := l.GetTransaction(ctx, owner, txn.Base().ID)
		require.NoError(t, err)
		assert.Empty(t, got.Base().CategoryID)
		assertAmount(t, l, b.ID, "-12.00")
	})

	t.Run("rename", func(t *testing.T) {
		l := newTestLedger(t, Options{})
		c, err := l.CreateCategory(ctx, owner, "Fod")
		require.NoError(t, err)
		c, err = l.RenameCategory(ctx, owner, c.ID, "Food")
		require.NoError(t, err)
		assert.Equal(t, "Food", c.Name)

		_, err = l.RenameCategory(ctx, "mallory", c.ID, "Mine")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateBalanceKeepsAmount(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()
	b := mustBalance(t, l, "Checking")
	_, err := l.CreateTransaction(ctx, owner, income(b.ID, "9.99"))
	require.NoError(t, err)

	name, currency := "Main", "USD"
	updated, err := l.UpdateBalance(ctx, owner, b.ID, &name, &currency)
	require.NoError(t, err)
	assert.Equal(t, "Main", updated.Name)
	assert.Equal(t, models.Currency("USD"), updated.Currency)
	assertAmount(t, l, b.ID, "9.99")

	bad := "XYZ"
	_, err = l.UpdateBalance(ctx, owner, b.ID, nil, &bad)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, UnknownCurrency, ve.Kind)
}

func TestReconcileCorrectsDrift(t *testing.T) {
	store := newTestStore(t)
	l := New(store, Options{ReconcileWorkers: 2})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	b := mustBalance(t, l, "B")
	_, err := l.CreateTransaction(ctx, owner, income(a.ID, "3.00"))
	require.NoError(t, err)

	// Corrupt the stored amount behind the ledger's back.
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetBalanceAmount(ctx, a.ID, dec("999")))
	require.NoError(t, tx.Commit())

	results, err := l.Reconcile(ctx, owner)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[string]ReconcileResult{}
	for _, r := range results {
		byID[r.BalanceID] = r
	}
	assert.True(t, byID[a.ID].Drifted())
	assert.True(t, byID[a.ID].After.Equal(dec("3.00")))
	assert.False(t, byID[b.ID].Drifted())
	assertAmount(t, l, a.ID, "3.00")
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ChangeEvent
	err    error
}

func (n *recordingNotifier) BalancesChanged(_ context.Context, e ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func TestNotifierAfterCommit(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("broker down")}
	l := newTestLedger(t, Options{Notifier: notifier})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	b := mustBalance(t, l, "B")
	tr, err := l.CreateTransaction(ctx, owner, transfer(a.ID, b.ID, "7.00"))
	require.NoError(t, err, "a failing notifier must not fail the write")

	require.Len(t, notifier.events, 1)
	e := notifier.events[0]
	assert.Equal(t, TransactionCreated, e.Type)
	assert.Equal(t, tr.Base().ID, e.TransactionID)
	require.Len(t, e.Balances, 2)
	for _, c := range e.Balances {
		assert.Equal(t, models.Currency("EUR"), c.Currency)
	}

	// Rejected writes notify nothing.
	_, err = l.CreateTransaction(ctx, owner, transfer(a.ID, a.ID, "7.00"))
	require.Error(t, err)
	assert.Len(t, notifier.events, 1)
}

func TestWriteMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	l := newTestLedger(t, Options{Metrics: m})
	ctx := context.Background()
	b := mustBalance(t, l, "A")

	_, err := l.CreateTransaction(ctx, owner, income(b.ID, "1.00"))
	require.NoError(t, err)
	_, err = l.CreateTransaction(ctx, owner, income(b.ID, "-1.00"))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionWrites.WithLabelValues("create", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionWrites.WithLabelValues("create", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recomputations.WithLabelValues("ok")))
}

func TestAmountTooLargeRejected(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()
	b := mustBalance(t, l, "Checking")

	_, err := l.CreateTransaction(ctx, owner, income(b.ID, "184467440737095516.17"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, AmountTooLarge, ve.Kind)

	txns, err := l.ListTransactions(ctx, owner, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
	assertAmount(t, l, b.ID, "0.00")
}

func TestAggregatedOverflowRollsBack(t *testing.T) {
	store := newTestStore(t)
	l := New(store, Options{})
	ctx := context.Background()
	b := mustBalance(t, l, "Checking")

	// Rows written behind the validator: each fits, their sum does not.
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	for range 2 {
		require.NoError(t, tx.InsertTransaction(ctx, &models.IncomeOutcome{
			TransactionBase: models.TransactionBase{
				OwnerID:  owner,
				Amount:   dec("50000000000000000.00"),
				Date:     models.NewDate(2024, 5, 1),
				Currency: "EUR",
			},
			Type:      models.Income,
			BalanceID: b.ID,
		}))
	}
	require.NoError(t, tx.Commit())

	_, err = l.Recompute(ctx, owner, b.ID)
	var ae *AggregationError
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, sqlite.ErrAmountOutOfRange)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, RolledBack, we.State)

	assertAmount(t, l, b.ID, "0.00")
}

func TestUpdateTransferMovesDestination(t *testing.T) {
	l := newTestLedger(t, Options{})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	b := mustBalance(t, l, "B")
	c := mustBalance(t, l, "C")

	tr, err := l.CreateTransaction(ctx, owner, transfer(a.ID, b.ID, "30.00"))
	require.NoError(t, err)
	assertAmount(t, l, b.ID, "30.00")

	to := c.ID
	updated, err := l.UpdateTransaction(ctx, owner, tr.Base().ID, models.TransactionPatch{BalanceToID: &to})
	require.NoError(t, err)

	moved, ok := updated.(*models.Transfer)
	require.True(t, ok)
	assert.Equal(t, a.ID, moved.BalanceFromID)
	assert.Equal(t, c.ID, moved.BalanceToID)

	assertAmount(t, l, a.ID, "-30.00")
	assertAmount(t, l, b.ID, "0.00")
	assertAmount(t, l, c.ID, "30.00")
}

// driftStore simulates a row that changes between the pre-read that picks
// the locks and the read inside the unit.
type driftStore struct {
	storage.Store

	// stale, when set, is what reads outside a unit return.
	stale models.Transaction
	// escape makes every read inside a unit report a balance never seen before.
	escape bool

	begins atomic.Int32
	moves  atomic.Int32
}

func (s *driftStore) GetTransaction(ctx context.Context, ownerID, transactionID string) (models.Transaction, error) {
	if s.stale != nil {
		return s.stale, nil
	}
	return s.Store.GetTransaction(ctx, ownerID, transactionID)
}

func (s *driftStore) BeginTx(ctx context.Context) (storage.Tx, error) {
	s.begins.Add(1)
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &driftTx{Tx: tx, store: s}, nil
}

type driftTx struct {
	storage.Tx
	store *driftStore
}

func (t *driftTx) GetTransaction(ctx context.Context, ownerID, transactionID string) (models.Transaction, error) {
	txn, err := t.Tx.GetTransaction(ctx, ownerID, transactionID)
	if err != nil || !t.store.escape {
		return txn, err
	}
	moved := *txn.(*models.IncomeOutcome)
	moved.BalanceID = fmt.Sprintf("elsewhere-%d", t.store.moves.Add(1))
	return &moved, nil
}

func TestDeleteRetriesWhenLockSetGrows(t *testing.T) {
	store := &driftStore{Store: newTestStore(t)}
	l := New(store, Options{})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	b := mustBalance(t, l, "B")
	txn, err := l.CreateTransaction(ctx, owner, income(a.ID, "5.00"))
	require.NoError(t, err)
	assertAmount(t, l, a.ID, "5.00")

	// The pre-read still sees the row on B; the stored row is on A.
	stale := *txn.(*models.IncomeOutcome)
	stale.BalanceID = b.ID
	store.stale = &stale
	store.begins.Store(0)

	require.NoError(t, l.DeleteTransaction(ctx, owner, txn.Base().ID))
	assert.Equal(t, int32(2), store.begins.Load(), "expected one retry with the wider lock set")

	store.stale = nil
	assertAmount(t, l, a.ID, "0.00")
	assertAmount(t, l, b.ID, "0.00")
	assert.Zero(t, l.coordinator.locks.size())
}

func TestDeleteGivesUpWhenLockSetKeepsGrowing(t *testing.T) {
	store := &driftStore{Store: newTestStore(t)}
	l := New(store, Options{})
	ctx := context.Background()

	a := mustBalance(t, l, "A")
	txn, err := l.CreateTransaction(ctx, owner, income(a.ID, "5.00"))
	require.NoError(t, err)

	store.escape = true
	store.begins.Store(0)

	err = l.DeleteTransaction(ctx, owner, txn.Base().ID)
	require.Error(t, err)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, RolledBack, we.State)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "lock balances", se.Op)
	assert.Equal(t, int32(maxLockRetries+1), store.begins.Load())

	store.escape = false
	got, err := l.GetTransaction(ctx, owner, txn.Base().ID)
	require.NoError(t, err, "the delete must have rolled back")
	assert.Equal(t, txn.Base().ID, got.Base().ID)
	assertAmount(t, l, a.ID, "5.00")
	assert.Zero(t, l.coordinator.locks.size())
}
