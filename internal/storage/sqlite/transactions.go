package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
)

const transactionColumns = `id, owner_id, kind, transaction_type, balance_id, balance_from_id,
	balance_to_id, category_id, name, amount_cents, date, note, currency, created_at`

// transactionRow is the flat column set shared by both variants.
type transactionRow struct {
	id, ownerID, kind       string
	txnType                 sql.NullString
	balanceID, fromID, toID sql.NullString
	categoryID, note        sql.NullString
	name, date, currency    string
	amountCents, createdAt  int64
}

func rowFor(txn models.Transaction) (transactionRow, error) {
	base := txn.Base()
	cents, err := toCents(base.Amount)
	if err != nil {
		return transactionRow{}, err
	}
	r := transactionRow{
		id:          base.ID,
		ownerID:     base.OwnerID,
		kind:        string(txn.Kind()),
		categoryID:  nullString(base.CategoryID),
		note:        nullString(base.Note),
		name:        base.Name,
		date:        base.Date.String(),
		currency:    string(base.Currency),
		amountCents: cents,
		createdAt:   base.CreatedAt,
	}
	switch t := txn.(type) {
	case *models.IncomeOutcome:
		r.txnType = nullString(string(t.Type))
		r.balanceID = nullString(t.BalanceID)
	case *models.Transfer:
		r.fromID = nullString(t.BalanceFromID)
		r.toID = nullString(t.BalanceToID)
	}
	return r, nil
}

func (r transactionRow) toModel() (models.Transaction, error) {
	date, err := models.ParseDate(r.date)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: stored date %q: %w", r.id, r.date, err)
	}
	base := models.TransactionBase{
		ID:         r.id,
		OwnerID:    r.ownerID,
		CategoryID: r.categoryID.String,
		Name:       r.name,
		Amount:     fromCents(r.amountCents),
		Date:       date,
		Note:       r.note.String,
		Currency:   models.Currency(r.currency),
		CreatedAt:  r.createdAt,
	}
	switch models.TransactionKind(r.kind) {
	case models.KindIncomeOutcome:
		return &models.IncomeOutcome{
			TransactionBase: base,
			Type:            models.TransactionType(r.txnType.String),
			BalanceID:       r.balanceID.String,
		}, nil
	case models.KindTransfer:
		return &models.Transfer{
			TransactionBase: base,
			BalanceFromID:   r.fromID.String,
			BalanceToID:     r.toID.String,
		}, nil
	default:
		return nil, fmt.Errorf("transaction %s: unknown kind %q", r.id, r.kind)
	}
}

func scanTransaction(s scanner) (models.Transaction, error) {
	var r transactionRow
	err := s.Scan(&r.id, &r.ownerID, &r.kind, &r.txnType, &r.balanceID, &r.fromID,
		&r.toID, &r.categoryID, &r.name, &r.amountCents, &r.date, &r.note, &r.currency, &r.createdAt)
	if err != nil {
		return nil, err
	}
	return r.toModel()
}

// InsertTransaction persists a new transaction of either variant.
func (q queries) InsertTransaction(ctx context.Context, txn models.Transaction) error {
	base := txn.Base()
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	if base.CreatedAt == 0 {
		base.CreatedAt = time.Now().Unix()
	}

	r, err := rowFor(txn)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	_, err = q.q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, r.ownerID, r.kind, r.txnType, r.balanceID, r.fromID,
		r.toID, r.categoryID, r.name, r.amountCents, r.date, r.note, r.currency, r.createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction owned by ownerID.
func (q queries) GetTransaction(ctx context.Context, ownerID, transactionID string) (models.Transaction, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND owner_id = ?",
		transactionID, ownerID,
	)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// ListTransactions retrieves the owner's transactions matching filter,
// newest date first.
func (q queries) ListTransactions(ctx context.Context, ownerID string, filter storage.TransactionFilter) ([]models.Transaction, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.BalanceID != "" {
		where = append(where, "(balance_id = ? OR balance_from_id = ? OR balance_to_id = ?)")
		args = append(args, filter.BalanceID, filter.BalanceID, filter.BalanceID)
	}
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	// Dates are stored as YYYY-MM-DD so lexical order is calendar order.
	if !filter.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.To.String())
	}

	rows, err := q.q.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE "+
			strings.Join(where, " AND ")+" ORDER BY date DESC, created_at DESC, id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// UpdateTransaction overwrites every mutable column. The kind is part of the
// WHERE clause so a row can never switch variant.
func (q queries) UpdateTransaction(ctx context.Context, txn models.Transaction) error {
	r, err := rowFor(txn)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	res, err := q.q.ExecContext(ctx,
		`UPDATE transactions SET
			transaction_type = ?, balance_id = ?, balance_from_id = ?, balance_to_id = ?,
			category_id = ?, name = ?, amount_cents = ?, date = ?, note = ?, currency = ?
		 WHERE id = ? AND owner_id = ? AND kind = ?`,
		r.txnType, r.balanceID, r.fromID, r.toID,
		r.categoryID, r.name, r.amountCents, r.date, r.note, r.currency,
		r.id, r.ownerID, r.kind,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return checkAffected(res, "transaction", r.id)
}

// DeleteTransaction removes a transaction owned by ownerID.
func (q queries) DeleteTransaction(ctx context.Context, ownerID, transactionID string) error {
	res, err := q.q.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND owner_id = ?",
		transactionID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return checkAffected(res, "transaction", transactionID)
}
