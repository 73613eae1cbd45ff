package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledger/internal/calculator"
	"github.com/mmynk/ledger/internal/metrics"
)

// AggregateStore is the slice of a storage.Tx the aggregator needs.
type AggregateStore interface {
	ListContributions(ctx context.Context, balanceID string) ([]calculator.Contribution, error)
	SetBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error
}

// Aggregator recomputes stored balance amounts from their transactions.
type Aggregator struct {
	metrics *metrics.Metrics
}

// NewAggregator creates an Aggregator. m may be nil.
func NewAggregator(m *metrics.Metrics) *Aggregator {
	return &Aggregator{metrics: m}
}

// Recompute reads every current contribution to balanceID through s,
// computes the amount from scratch and stores it. Calling it twice in a
// row stores the same value.
func (a *Aggregator) Recompute(ctx context.Context, s AggregateStore, balanceID string) (amount decimal.Decimal, err error) {
	start := time.Now()
	defer func() { a.metrics.ObserveRecompute(time.Since(start), err) }()

	contributions, err := s.ListContributions(ctx, balanceID)
	if err != nil {
		return decimal.Zero, &AggregationError{BalanceID: balanceID, Err: err}
	}
	amount, err = calculator.BalanceAmount(contributions)
	if err != nil {
		return decimal.Zero, &AggregationError{BalanceID: balanceID, Err: err}
	}
	if err := s.SetBalanceAmount(ctx, balanceID, amount); err != nil {
		return decimal.Zero, &AggregationError{BalanceID: balanceID, Err: err}
	}
	return amount, nil
}
