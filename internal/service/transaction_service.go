package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/ledger/internal/ledger"
	"github.com/mmynk/ledger/internal/middleware"
	"github.com/mmynk/ledger/pkg/api"
	"github.com/mmynk/ledger/pkg/api/apiconnect"
)

// TransactionService implements the Connect TransactionService. Every
// write recomputes the affected balances before it returns.
type TransactionService struct {
	ledger *ledger.Ledger
}

var _ apiconnect.TransactionServiceHandler = (*TransactionService)(nil)

// NewTransactionService creates a TransactionService on top of l.
func NewTransactionService(l *ledger.Ledger) *TransactionService {
	return &TransactionService{ledger: l}
}

// ValidateTransaction runs the full validation of a draft without
// persisting it.
func (s *TransactionService) ValidateTransaction(ctx context.Context, req *connect.Request[api.ValidateTransactionRequest]) (*connect.Response[api.ValidateTransactionResponse], error) {
	txn, err := s.ledger.Validate(ctx, middleware.GetUserID(ctx), toDraft(req.Msg.Transaction))
	if err != nil {
		return nil, toConnectError("ValidateTransaction", err)
	}
	return connect.NewResponse(&api.ValidateTransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

func (s *TransactionService) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error) {
	in := req.Msg.Transaction
	slog.Info("CreateTransaction request received",
		"kind", in.Kind,
		"type", in.Type,
		"amount", in.Amount,
		"date", in.Date,
	)

	txn, err := s.ledger.CreateTransaction(ctx, middleware.GetUserID(ctx), toDraft(in))
	if err != nil {
		return nil, toConnectError("CreateTransaction", err)
	}

	slog.Info("Transaction created", "transaction_id", txn.Base().ID, "balances", txn.BalanceIDs())
	return connect.NewResponse(&api.CreateTransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error) {
	slog.Debug("GetTransaction request received", "transaction_id", req.Msg.TransactionID)

	txn, err := s.ledger.GetTransaction(ctx, middleware.GetUserID(ctx), req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError("GetTransaction", err)
	}
	return connect.NewResponse(&api.GetTransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	slog.Debug("ListTransactions request received",
		"kind", req.Msg.Kind,
		"balance_id", req.Msg.BalanceID,
		"category_id", req.Msg.CategoryID,
	)

	filter, err := toFilter(req.Msg)
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}
	txns, err := s.ledger.ListTransactions(ctx, middleware.GetUserID(ctx), filter)
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}

	slog.Debug("ListTransactions successful", "count", len(txns))
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: toAPITransactions(txns)}), nil
}

// UpdateTransaction applies a partial update. The kind of a transaction
// cannot change.
func (s *TransactionService) UpdateTransaction(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.UpdateTransactionResponse], error) {
	slog.Info("UpdateTransaction request received", "transaction_id", req.Msg.TransactionID)

	txn, err := s.ledger.UpdateTransaction(ctx, middleware.GetUserID(ctx), req.Msg.TransactionID, toPatch(req.Msg.Patch))
	if err != nil {
		return nil, toConnectError("UpdateTransaction", err)
	}

	slog.Info("Transaction updated", "transaction_id", txn.Base().ID)
	return connect.NewResponse(&api.UpdateTransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, req *connect.Request[api.DeleteTransactionRequest]) (*connect.Response[api.DeleteTransactionResponse], error) {
	slog.Info("DeleteTransaction request received", "transaction_id", req.Msg.TransactionID)

	if err := s.ledger.DeleteTransaction(ctx, middleware.GetUserID(ctx), req.Msg.TransactionID); err != nil {
		return nil, toConnectError("DeleteTransaction", err)
	}

	slog.Info("Transaction deleted", "transaction_id", req.Msg.TransactionID)
	return connect.NewResponse(&api.DeleteTransactionResponse{}), nil
}
