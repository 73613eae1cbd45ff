package models

import "github.com/shopspring/decimal"

// TransactionKind tags the variant of a Transaction.
type TransactionKind string

const (
	KindIncomeOutcome TransactionKind = "income_outcome"
	KindTransfer      TransactionKind = "transfer"
)

// TransactionType is the direction of an IncomeOutcome transaction.
type TransactionType string

const (
	Income  TransactionType = "income"
	Outcome TransactionType = "outcome"
)

// TransactionBase holds the fields shared by every transaction variant.
type TransactionBase struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// OwnerID is the user who recorded the transaction.
	OwnerID string

	// CategoryID references a Category of the same owner. Empty when unset.
	CategoryID string

	// Name is an optional short label (e.g., "Salary", "Rent").
	Name string

	// Amount is always positive with at most two fraction digits.
	// The variant decides whether it adds to or subtracts from a balance.
	Amount decimal.Decimal

	// Date is the calendar date the money moved.
	Date Date

	// Note is optional free text.
	Note string

	// Currency is a label only.
	Currency Currency

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64
}

// Transaction is implemented by *IncomeOutcome and *Transfer only.
type Transaction interface {
	// Base returns the shared fields. Mutations through the pointer are
	// visible on the transaction.
	Base() *TransactionBase

	// Kind returns the variant tag.
	Kind() TransactionKind

	// BalanceIDs returns every balance the transaction contributes to.
	BalanceIDs() []string

	// Draft converts the transaction back into its unvalidated input form.
	Draft() TransactionDraft

	isTransaction()
}

// IncomeOutcome adds to (income) or subtracts from (outcome) exactly one balance.
type IncomeOutcome struct {
	TransactionBase
	Type      TransactionType
	BalanceID string
}

// Transfer moves Amount from BalanceFromID to BalanceToID.
// The two balances are always distinct.
type Transfer struct {
	TransactionBase
	BalanceFromID string
	BalanceToID   string
}

var (
	_ Transaction = (*IncomeOutcome)(nil)
	_ Transaction = (*Transfer)(nil)
)

func (t *IncomeOutcome) Base() *TransactionBase { return &t.TransactionBase }
func (t *IncomeOutcome) Kind() TransactionKind  { return KindIncomeOutcome }
func (t *IncomeOutcome) BalanceIDs() []string   { return []string{t.BalanceID} }
func (t *IncomeOutcome) isTransaction()         {}

func (t *IncomeOutcome) Draft() TransactionDraft {
	d := t.TransactionBase.draft(KindIncomeOutcome)
	d.Type = t.Type
	d.BalanceID = t.BalanceID
	return d
}

func (t *Transfer) Base() *TransactionBase { return &t.TransactionBase }
func (t *Transfer) Kind() TransactionKind  { return KindTransfer }
func (t *Transfer) BalanceIDs() []string   { return []string{t.BalanceFromID, t.BalanceToID} }
func (t *Transfer) isTransaction()         {}

func (t *Transfer) Draft() TransactionDraft {
	d := t.TransactionBase.draft(KindTransfer)
	d.BalanceFromID = t.BalanceFromID
	d.BalanceToID = t.BalanceToID
	return d
}

func (b TransactionBase) draft(kind TransactionKind) TransactionDraft {
	return TransactionDraft{
		Kind:       kind,
		CategoryID: b.CategoryID,
		Name:       b.Name,
		Amount:     b.Amount.StringFixed(2),
		Date:       b.Date.String(),
		Note:       b.Note,
		Currency:   string(b.Currency),
	}
}

// TransactionDraft is the raw, unvalidated input for a transaction write.
// All values are strings as received from the client.
type TransactionDraft struct {
	Kind          TransactionKind
	Type          TransactionType
	BalanceID     string
	BalanceFromID string
	BalanceToID   string
	CategoryID    string
	Name          string
	Amount        string
	Date          string
	Note          string
	Currency      string
}

// TransactionPatch is a partial update. Nil fields keep their stored value.
// Kind is never applied; a non-nil Kind that differs from the stored one
// is rejected by the ledger.
type TransactionPatch struct {
	Kind          *TransactionKind
	Type          *TransactionType
	BalanceID     *string
	BalanceFromID *string
	BalanceToID   *string
	CategoryID    *string
	Name          *string
	Amount        *string
	Date          *string
	Note          *string
	Currency      *string
}

// Apply merges the patch onto d and returns the merged draft.
func (p TransactionPatch) Apply(d TransactionDraft) TransactionDraft {
	if p.Type != nil {
		d.Type = *p.Type
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.BalanceID, p.BalanceID)
	set(&d.BalanceFromID, p.BalanceFromID)
	set(&d.BalanceToID, p.BalanceToID)
	set(&d.CategoryID, p.CategoryID)
	set(&d.Name, p.Name)
	set(&d.Amount, p.Amount)
	set(&d.Date, p.Date)
	set(&d.Note, p.Note)
	set(&d.Currency, p.Currency)
	return d
}
