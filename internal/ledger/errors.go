package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/ledger/internal/storage"
)

var (
	// ErrNotFound reports a missing entity, including one owned by someone else.
	ErrNotFound = storage.ErrNotFound

	// ErrCategoryInUse is returned when deleting a category that transactions
	// still reference while categories are mandatory.
	ErrCategoryInUse = errors.New("category is in use")

	// ErrUnauthenticated is returned when no owner is attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Violation names the rule a ValidationError broke.
type Violation string

const (
	InvalidKind           Violation = "invalid_kind"
	InvalidType           Violation = "invalid_type"
	MissingBalance        Violation = "missing_balance"
	UnexpectedField       Violation = "unexpected_field"
	SameBalanceTransfer   Violation = "same_balance_transfer"
	InvalidAmount         Violation = "invalid_amount"
	NonPositiveAmount     Violation = "non_positive_amount"
	TooManyFractionDigits Violation = "too_many_fraction_digits"
	AmountTooLarge        Violation = "amount_too_large"
	UnknownCurrency       Violation = "unknown_currency"
	InvalidDate           Violation = "invalid_date"
	MissingCategory       Violation = "missing_category"
	InvalidName           Violation = "invalid_name"
	TooLong               Violation = "too_long"
	DuplicateName         Violation = "duplicate_name"
	ImmutableKind         Violation = "immutable_kind"
)

// ValidationError reports the first rule a write broke. Nothing was persisted.
type ValidationError struct {
	Field  string
	Kind   Violation
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field string, kind Violation, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// OwnershipError reports a reference to an entity the owner cannot see.
// It matches ErrNotFound so callers never learn whether the entity exists.
type OwnershipError struct {
	Entity string
	ID     string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *OwnershipError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AggregationError reports a recomputation that could not complete.
// The surrounding write was rolled back, so retrying is safe.
type AggregationError struct {
	BalanceID string
	Err       error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("recompute balance %s: %v", e.BalanceID, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// WriteError records the state a write reached before it failed.
type WriteError struct {
	State WriteState
	Op    string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s transaction %s: %v", e.Op, e.State, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// storageErr wraps err unless it already carries a ledger meaning.
func storageErr(op string, err error) error {
	var (
		ve *ValidationError
		oe *OwnershipError
		ae *AggregationError
	)
	if errors.As(err, &ve) || errors.As(err, &oe) || errors.As(err, &ae) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
