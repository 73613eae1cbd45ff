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

// BalanceService implements the Connect BalanceService.
type BalanceService struct {
	ledger *ledger.Ledger
}

var _ apiconnect.BalanceServiceHandler = (*BalanceService)(nil)

// NewBalanceService creates a BalanceService on top of l.
func NewBalanceService(l *ledger.Ledger) *BalanceService {
	return &BalanceService{ledger: l}
}

// CreateBalance creates an empty balance for the caller.
func (s *BalanceService) CreateBalance(ctx context.Context, req *connect.Request[api.CreateBalanceRequest]) (*connect.Response[api.CreateBalanceResponse], error) {
	slog.Info("CreateBalance request received", "name", req.Msg.Name, "currency", req.Msg.Currency)

	b, err := s.ledger.CreateBalance(ctx, middleware.GetUserID(ctx), req.Msg.Name, req.Msg.Currency)
	if err != nil {
		return nil, toConnectError("CreateBalance", err)
	}

	slog.Info("Balance created", "balance_id", b.ID)
	return connect.NewResponse(&api.CreateBalanceResponse{Balance: toAPIBalance(b)}), nil
}

func (s *BalanceService) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	slog.Debug("GetBalance request received", "balance_id", req.Msg.BalanceID)

	b, err := s.ledger.GetBalance(ctx, middleware.GetUserID(ctx), req.Msg.BalanceID)
	if err != nil {
		return nil, toConnectError("GetBalance", err)
	}
	return connect.NewResponse(&api.GetBalanceResponse{Balance: toAPIBalance(b)}), nil
}

func (s *BalanceService) ListBalances(ctx context.Context, req *connect.Request[api.ListBalancesRequest]) (*connect.Response[api.ListBalancesResponse], error) {
	slog.Debug("ListBalances request received")

	balances, err := s.ledger.ListBalances(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("ListBalances", err)
	}

	out := make([]api.Balance, len(balances))
	for i, b := range balances {
		out[i] = toAPIBalance(b)
	}
	slog.Debug("ListBalances successful", "count", len(out))
	return connect.NewResponse(&api.ListBalancesResponse{Balances: out}), nil
}

// UpdateBalance renames a balance or changes its currency label. The amount
// is never client-settable.
func (s *BalanceService) UpdateBalance(ctx context.Context, req *connect.Request[api.UpdateBalanceRequest]) (*connect.Response[api.UpdateBalanceResponse], error) {
	slog.Info("UpdateBalance request received", "balance_id", req.Msg.BalanceID)

	b, err := s.ledger.UpdateBalance(ctx, middleware.GetUserID(ctx), req.Msg.BalanceID, req.Msg.Name, req.Msg.Currency)
	if err != nil {
		return nil, toConnectError("UpdateBalance", err)
	}

	slog.Info("Balance updated", "balance_id", b.ID)
	return connect.NewResponse(&api.UpdateBalanceResponse{Balance: toAPIBalance(b)}), nil
}

// DeleteBalance removes a balance together with every transaction that
// references it.
func (s *BalanceService) DeleteBalance(ctx context.Context, req *connect.Request[api.DeleteBalanceRequest]) (*connect.Response[api.DeleteBalanceResponse], error) {
	slog.Info("DeleteBalance request received", "balance_id", req.Msg.BalanceID)

	if err := s.ledger.DeleteBalance(ctx, middleware.GetUserID(ctx), req.Msg.BalanceID); err != nil {
		return nil, toConnectError("DeleteBalance", err)
	}

	slog.Info("Balance deleted", "balance_id", req.Msg.BalanceID)
	return connect.NewResponse(&api.DeleteBalanceResponse{}), nil
}

func (s *BalanceService) RecomputeBalance(ctx context.Context, req *connect.Request[api.RecomputeBalanceRequest]) (*connect.Response[api.RecomputeBalanceResponse], error) {
	slog.Info("RecomputeBalance request received", "balance_id", req.Msg.BalanceID)

	ownerID := middleware.GetUserID(ctx)
	if _, err := s.ledger.Recompute(ctx, ownerID, req.Msg.BalanceID); err != nil {
		return nil, toConnectError("RecomputeBalance", err)
	}
	b, err := s.ledger.GetBalance(ctx, ownerID, req.Msg.BalanceID)
	if err != nil {
		return nil, toConnectError("RecomputeBalance", err)
	}
	return connect.NewResponse(&api.RecomputeBalanceResponse{Balance: toAPIBalance(b)}), nil
}

func (s *BalanceService) ReconcileBalances(ctx context.Context, req *connect.Request[api.ReconcileBalancesRequest]) (*connect.Response[api.ReconcileBalancesResponse], error) {
	slog.Info("ReconcileBalances request received")

	results, err := s.ledger.Reconcile(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("ReconcileBalances", err)
	}

	out := toAPIReconcileResults(results)
	slog.Info("ReconcileBalances successful", "count", len(out))
	return connect.NewResponse(&api.ReconcileBalancesResponse{Results: out}), nil
}
