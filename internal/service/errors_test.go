package service

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/ledger/internal/ledger"
	"github.com/mmynk/ledger/internal/storage"
)

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"validation", &ledger.ValidationError{Field: "amount", Kind: ledger.NonPositiveAmount}, connect.CodeInvalidArgument},
		{"not found", fmt.Errorf("get balance: %w", ledger.ErrNotFound), connect.CodeNotFound},
		{"ownership", &ledger.OwnershipError{Entity: "balance", ID: "b1"}, connect.CodeNotFound},
		{"category in use", ledger.ErrCategoryInUse, connect.CodeFailedPrecondition},
		{"unauthenticated", ledger.ErrUnauthenticated, connect.CodeUnauthenticated},
		{"aggregation", &ledger.AggregationError{BalanceID: "b1", Err: errors.New("disk I/O error")}, connect.CodeUnavailable},
		{
			name: "aggregation wrapping not found",
			err: &ledger.WriteError{State: ledger.RolledBack, Op: "create", Err: &ledger.AggregationError{
				BalanceID: "b1",
				Err:       fmt.Errorf("failed to set balance amount: %w", storage.ErrNotFound),
			}},
			want: connect.CodeUnavailable,
		},
		{"storage", &ledger.StorageError{Op: "commit", Err: errors.New("database is locked")}, connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toConnectError("Test", tt.err)
			var cerr *connect.Error
			if assert.ErrorAs(t, err, &cerr) {
				assert.Equal(t, tt.want, cerr.Code())
			}
		})
	}
}
