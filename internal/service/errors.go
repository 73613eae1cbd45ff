package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/ledger/internal/ledger"
)

// ViolationHeader carries the violated rule of an InvalidArgument error.
const ViolationHeader = "Ledger-Violation"

// toConnectError maps a ledger error to its RPC code. Unknown failures are
// logged and reported as Internal.
func toConnectError(op string, err error) error {
	var (
		ve *ledger.ValidationError
		ae *ledger.AggregationError
	)
	switch {
	case errors.As(err, &ve):
		slog.Warn(op+" rejected", "field", ve.Field, "violation", ve.Kind, "reason", ve.Reason)
		cerr := connect.NewError(connect.CodeInvalidArgument, err)
		cerr.Meta().Set(ViolationHeader, string(ve.Kind))
		return cerr
	case errors.As(err, &ae):
		// Checked before ErrNotFound: a balance vanishing mid-recompute is
		// still a retryable aggregation failure.
		slog.Error(op+" failed", "balance_id", ae.BalanceID, "error", err)
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, ledger.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, ledger.ErrNotFound):
		slog.Warn(op+" failed", "error", err)
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrCategoryInUse):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
}
