package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/ledger/internal/calculator"
	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
)

// CreateBalance persists a new balance. The amount always starts at zero.
func (q queries) CreateBalance(ctx context.Context, balance *models.Balance) error {
	if balance.ID == "" {
		balance.ID = uuid.New().String()
	}
	if balance.CreatedAt == 0 {
		balance.CreatedAt = time.Now().Unix()
	}
	balance.Amount = decimal.Zero

	_, err := q.q.ExecContext(ctx,
		`INSERT INTO balances (id, owner_id, name, amount_cents, currency, created_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		balance.ID, balance.OwnerID, balance.Name, string(balance.Currency), balance.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert balance: %w", err)
	}
	return nil
}

// GetBalance retrieves a balance owned by ownerID.
func (q queries) GetBalance(ctx context.Context, ownerID, balanceID string) (*models.Balance, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT id, owner_id, name, amount_cents, currency, created_at
		 FROM balances WHERE id = ? AND owner_id = ?`,
		balanceID, ownerID,
	)
	balance, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("balance %s: %w", balanceID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// ListBalances retrieves every balance of ownerID ordered by name.
func (q queries) ListBalances(ctx context.Context, ownerID string) ([]*models.Balance, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, owner_id, name, amount_cents, currency, created_at
		 FROM balances WHERE owner_id = ? ORDER BY name, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []*models.Balance
	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

// UpdateBalance changes the name and currency. The amount column is not touched.
func (q queries) UpdateBalance(ctx context.Context, balance *models.Balance) error {
	res, err := q.q.ExecContext(ctx,
		"UPDATE balances SET name = ?, currency = ? WHERE id = ? AND owner_id = ?",
		balance.Name, string(balance.Currency), balance.ID, balance.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return checkAffected(res, "balance", balance.ID)
}

// DeleteBalance removes a balance; its transactions go with it via ON DELETE CASCADE.
func (q queries) DeleteBalance(ctx context.Context, ownerID, balanceID string) error {
	res, err := q.q.ExecContext(ctx,
		"DELETE FROM balances WHERE id = ? AND owner_id = ?",
		balanceID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return checkAffected(res, "balance", balanceID)
}

// SetBalanceAmount stores an aggregated amount.
func (q queries) SetBalanceAmount(ctx context.Context, balanceID string, amount decimal.Decimal) error {
	cents, err := toCents(amount)
	if err != nil {
		return fmt.Errorf("failed to set balance amount: %w", err)
	}
	res, err := q.q.ExecContext(ctx,
		"UPDATE balances SET amount_cents = ? WHERE id = ?",
		cents, balanceID,
	)
	if err != nil {
		return fmt.Errorf("failed to set balance amount: %w", err)
	}
	return checkAffected(res, "balance", balanceID)
}

// ListContributions returns one row per (transaction, side) touching balanceID.
// A transfer appears once, as transfer_in or transfer_out, since its two
// sides always reference different balances.
func (q queries) ListContributions(ctx context.Context, balanceID string) ([]calculator.Contribution, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, transaction_type, amount_cents FROM transactions
		 WHERE kind = 'income_outcome' AND balance_id = ?
		 UNION ALL
		 SELECT id, 'transfer_in', amount_cents FROM transactions
		 WHERE kind = 'transfer' AND balance_to_id = ?
		 UNION ALL
		 SELECT id, 'transfer_out', amount_cents FROM transactions
		 WHERE kind = 'transfer' AND balance_from_id = ?`,
		balanceID, balanceID, balanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []calculator.Contribution
	for rows.Next() {
		var (
			c      calculator.Contribution
			source string
			cents  int64
		)
		if err := rows.Scan(&c.TransactionID, &source, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Source = calculator.Source(source)
		c.Amount = fromCents(cents)
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return contributions, nil
}

// ListTransferCounterparts returns the distinct balances on the other side
// of every transfer touching balanceID.
func (q queries) ListTransferCounterparts(ctx context.Context, balanceID string) ([]string, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT balance_to_id FROM transactions WHERE kind = 'transfer' AND balance_from_id = ?
		 UNION
		 SELECT balance_from_id FROM transactions WHERE kind = 'transfer' AND balance_to_id = ?`,
		balanceID, balanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer counterparts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan counterpart: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counterparts: %w", err)
	}
	return ids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBalance(s scanner) (*models.Balance, error) {
	var (
		b        models.Balance
		cents    int64
		currency string
	)
	if err := s.Scan(&b.ID, &b.OwnerID, &b.Name, &cents, &currency, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Amount = fromCents(cents)
	b.Currency = models.Currency(currency)
	return &b, nil
}
