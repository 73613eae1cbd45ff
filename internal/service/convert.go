package service

import (
	"github.com/mmynk/ledger/internal/ledger"
	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
	"github.com/mmynk/ledger/pkg/api"
)

func toAPIBalance(b *models.Balance) api.Balance {
	return api.Balance{
		ID:        b.ID,
		Name:      b.Name,
		Amount:    b.Amount.StringFixed(2),
		Currency:  string(b.Currency),
		CreatedAt: b.CreatedAt,
	}
}

func toAPICategory(c *models.Category) api.Category {
	return api.Category{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}

func toAPITransaction(txn models.Transaction) api.Transaction {
	b := txn.Base()
	out := api.Transaction{
		ID:         b.ID,
		Kind:       string(txn.Kind()),
		CategoryID: b.CategoryID,
		Name:       b.Name,
		Amount:     b.Amount.StringFixed(2),
		Date:       b.Date.String(),
		Note:       b.Note,
		Currency:   string(b.Currency),
		CreatedAt:  b.CreatedAt,
	}
	switch t := txn.(type) {
	case *models.IncomeOutcome:
		out.Type = string(t.Type)
		out.BalanceID = t.BalanceID
	case *models.Transfer:
		out.BalanceFromID = t.BalanceFromID
		out.BalanceToID = t.BalanceToID
	}
	return out
}

func toAPITransactions(txns []models.Transaction) []api.Transaction {
	out := make([]api.Transaction, len(txns))
	for i, txn := range txns {
		out[i] = toAPITransaction(txn)
	}
	return out
}

func toDraft(in api.TransactionInput) models.TransactionDraft {
	return models.TransactionDraft{
		Kind:          models.TransactionKind(in.Kind),
		Type:          models.TransactionType(in.Type),
		BalanceID:     in.BalanceID,
		BalanceFromID: in.BalanceFromID,
		BalanceToID:   in.BalanceToID,
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Amount:        in.Amount,
		Date:          in.Date,
		Note:          in.Note,
		Currency:      in.Currency,
	}
}

func toPatch(in api.TransactionPatch) models.TransactionPatch {
	p := models.TransactionPatch{
		BalanceID:     in.BalanceID,
		BalanceFromID: in.BalanceFromID,
		BalanceToID:   in.BalanceToID,
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Amount:        in.Amount,
		Date:          in.Date,
		Note:          in.Note,
		Currency:      in.Currency,
	}
	if in.Kind != nil {
		kind := models.TransactionKind(*in.Kind)
		p.Kind = &kind
	}
	if in.Type != nil {
		typ := models.TransactionType(*in.Type)
		p.Type = &typ
	}
	return p
}

func toFilter(req *api.ListTransactionsRequest) (storage.TransactionFilter, error) {
	filter := storage.TransactionFilter{
		Kind:       models.TransactionKind(req.Kind),
		BalanceID:  req.BalanceID,
		CategoryID: req.CategoryID,
	}
	switch filter.Kind {
	case "", models.KindIncomeOutcome, models.KindTransfer:
	default:
		return filter, &ledger.ValidationError{Field: "kind", Kind: ledger.InvalidKind, Reason: "unknown kind " + req.Kind}
	}

	var err error
	if req.From != "" {
		if filter.From, err = models.ParseDate(req.From); err != nil {
			return filter, &ledger.ValidationError{Field: "from", Kind: ledger.InvalidDate, Reason: err.Error()}
		}
	}
	if req.To != "" {
		if filter.To, err = models.ParseDate(req.To); err != nil {
			return filter, &ledger.ValidationError{Field: "to", Kind: ledger.InvalidDate, Reason: err.Error()}
		}
	}
	return filter, nil
}

func toAPIReconcileResults(results []ledger.ReconcileResult) []api.ReconcileResult {
	out := make([]api.ReconcileResult, len(results))
	for i, r := range results {
		out[i] = api.ReconcileResult{
			BalanceID: r.BalanceID,
			Name:      r.Name,
			Before:    r.Before.StringFixed(2),
			After:     r.After.StringFixed(2),
			Drifted:   r.Drifted(),
		}
	}
	return out
}
