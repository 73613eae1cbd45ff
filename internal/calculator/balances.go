package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledger/internal/models"
)

// Source classifies how a transaction contributes to a balance.
type Source string

const (
	SourceIncome      Source = "income"
	SourceOutcome     Source = "outcome"
	SourceTransferIn  Source = "transfer_in"
	SourceTransferOut Source = "transfer_out"
)

// Contribution is one transaction's effect on one balance.
// Amount is always positive; Source carries the sign.
type Contribution struct {
	TransactionID string
	Source        Source
	Amount        decimal.Decimal
}

// Signed returns the amount with the sign implied by its source.
func (c Contribution) Signed() (decimal.Decimal, error) {
	switch c.Source {
	case SourceIncome, SourceTransferIn:
		return c.Amount, nil
	case SourceOutcome, SourceTransferOut:
		return c.Amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown contribution source %q", c.Source)
	}
}

// BalanceAmount computes a balance's amount from its contributions.
//
// Algorithm:
//   - amount = income + transfers_in - outcome - transfers_out
//   - exact decimal summation, rounded to two fraction digits
//   - an empty set sums to zero
//
// The result depends only on the multiset of contributions, so it is
// independent of row order and safe to recompute any number of times.
func BalanceAmount(contributions []Contribution) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, c := range contributions {
		signed, err := c.Signed()
		if err != nil {
			return decimal.Zero, fmt.Errorf("transaction %s: %w", c.TransactionID, err)
		}
		total = total.Add(signed)
	}
	return total.Round(2), nil
}

// ContributionsFor derives the contributions to balanceID from raw
// transactions. A transaction that does not reference the balance
// contributes nothing.
func ContributionsFor(balanceID string, txns []models.Transaction) []Contribution {
	var out []Contribution
	for _, txn := range txns {
		base := txn.Base()
		switch t := txn.(type) {
		case *models.IncomeOutcome:
			if t.BalanceID != balanceID {
				continue
			}
			source := SourceIncome
			if t.Type == models.Outcome {
				source = SourceOutcome
			}
			out = append(out, Contribution{TransactionID: base.ID, Source: source, Amount: base.Amount})
		case *models.Transfer:
			if t.BalanceToID == balanceID {
				out = append(out, Contribution{TransactionID: base.ID, Source: SourceTransferIn, Amount: base.Amount})
			}
			if t.BalanceFromID == balanceID {
				out = append(out, Contribution{TransactionID: base.ID, Source: SourceTransferOut, Amount: base.Amount})
			}
		}
	}
	return out
}
