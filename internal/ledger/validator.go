package ledger

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
)

const (
	maxNameLength = 255
	maxNoteLength = 1000
)

// Config holds the ledger rules that vary per deployment.
type Config struct {
	// Currencies is the closed set of accepted codes.
	Currencies models.CurrencySet

	// RequireCategory makes the category mandatory on every transaction.
	RequireCategory bool
}

// DefaultConfig accepts EUR and USD with categories optional.
func DefaultConfig() Config {
	return Config{Currencies: models.NewCurrencySet("EUR", "USD")}
}

// Validator checks transaction drafts before anything is persisted.
type Validator struct {
	cfg Config
}

// NewValidator creates a Validator enforcing cfg.
func NewValidator(cfg Config) *Validator {
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = DefaultConfig().Currencies
	}
	return &Validator{cfg: cfg}
}

// Validate runs the structural rules and then the ownership checks against r.
// It returns the typed transaction owned by ownerID.
func (v *Validator) Validate(ctx context.Context, r storage.Reader, ownerID string, d models.TransactionDraft) (models.Transaction, error) {
	txn, err := v.Structure(d)
	if err != nil {
		return nil, err
	}
	txn.Base().OwnerID = ownerID
	if err := v.References(ctx, r, ownerID, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Structure applies every rule that needs no storage access.
// The first broken rule is reported as a *ValidationError.
func (v *Validator) Structure(d models.TransactionDraft) (models.Transaction, error) {
	base, err := v.base(d)
	if err != nil {
		return nil, err
	}

	switch d.Kind {
	case models.KindIncomeOutcome:
		if d.Type != models.Income && d.Type != models.Outcome {
			return nil, invalid("type", InvalidType, "must be %q or %q, got %q", models.Income, models.Outcome, d.Type)
		}
		if strings.TrimSpace(d.BalanceID) == "" {
			return nil, invalid("balance_id", MissingBalance, "is required")
		}
		if d.BalanceFromID != "" || d.BalanceToID != "" {
			return nil, invalid("balance_from_id", UnexpectedField, "not allowed on %s", models.KindIncomeOutcome)
		}
		return &models.IncomeOutcome{
			TransactionBase: base,
			Type:            d.Type,
			BalanceID:       strings.TrimSpace(d.BalanceID),
		}, nil

	case models.KindTransfer:
		from, to := strings.TrimSpace(d.BalanceFromID), strings.TrimSpace(d.BalanceToID)
		if from == "" {
			return nil, invalid("balance_from_id", MissingBalance, "is required")
		}
		if to == "" {
			return nil, invalid("balance_to_id", MissingBalance, "is required")
		}
		if from == to {
			return nil, invalid("balance_to_id", SameBalanceTransfer, "must differ from balance_from_id")
		}
		if d.Type != "" || d.BalanceID != "" {
			return nil, invalid("balance_id", UnexpectedField, "not allowed on %s", models.KindTransfer)
		}
		return &models.Transfer{
			TransactionBase: base,
			BalanceFromID:   from,
			BalanceToID:     to,
		}, nil

	default:
		return nil, invalid("kind", InvalidKind, "must be %q or %q, got %q", models.KindIncomeOutcome, models.KindTransfer, d.Kind)
	}
}

func (v *Validator) base(d models.TransactionDraft) (models.TransactionBase, error) {
	var b models.TransactionBase

	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return b, err
	}

	currency := models.Currency(strings.TrimSpace(d.Currency))
	if !v.cfg.Currencies.Contains(currency) {
		return b, invalid("currency", UnknownCurrency, "%q is not one of %v", d.Currency, v.cfg.Currencies.Codes())
	}

	date, err := models.ParseDate(d.Date)
	if err != nil {
		return b, invalid("date", InvalidDate, "%q is not a YYYY-MM-DD date", d.Date)
	}

	categoryID := strings.TrimSpace(d.CategoryID)
	if v.cfg.RequireCategory && categoryID == "" {
		return b, invalid("category_id", MissingCategory, "is required")
	}

	name := strings.TrimSpace(d.Name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return b, invalid("name", TooLong, "exceeds %d characters", maxNameLength)
	}
	if utf8.RuneCountInString(d.Note) > maxNoteLength {
		return b, invalid("note", TooLong, "exceeds %d characters", maxNoteLength)
	}

	b = models.TransactionBase{
		CategoryID: categoryID,
		Name:       name,
		Amount:     amount,
		Date:       date,
		Note:       d.Note,
		Currency:   currency,
	}
	return b, nil
}

// MaxAmount is the largest accepted transaction amount: 13 integer digits
// and two fraction digits.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// ParseAmount parses a positive amount with at most two significant
// fraction digits. "1.500" is accepted as 1.50; "1.505" is not.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, invalid("amount", InvalidAmount, "%q is not a decimal number", s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, invalid("amount", NonPositiveAmount, "must be greater than zero, got %s", amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, invalid("amount", TooManyFractionDigits, "%s has more than two fraction digits", amount)
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, invalid("amount", AmountTooLarge, "must not exceed %s", MaxAmount.StringFixed(2))
	}
	return amount.Round(2), nil
}

// References checks that every balance and category txn points at exists
// and belongs to ownerID.
func (v *Validator) References(ctx context.Context, r storage.Reader, ownerID string, txn models.Transaction) error {
	for _, id := range txn.BalanceIDs() {
		if _, err := r.GetBalance(ctx, ownerID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return &OwnershipError{Entity: "balance", ID: id}
			}
			return &StorageError{Op: "get balance", Err: err}
		}
	}
	if id := txn.Base().CategoryID; id != "" {
		if _, err := r.GetCategory(ctx, ownerID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return &OwnershipError{Entity: "category", ID: id}
			}
			return &StorageError{Op: "get category", Err: err}
		}
	}
	return nil
}

// BalanceFields validates the client-settable fields of a balance.
func (v *Validator) BalanceFields(name, currency string) (string, models.Currency, error) {
	name, err := entityName(name)
	if err != nil {
		return "", "", err
	}
	code := models.Currency(strings.TrimSpace(currency))
	if !v.cfg.Currencies.Contains(code) {
		return "", "", invalid("currency", UnknownCurrency, "%q is not one of %v", currency, v.cfg.Currencies.Codes())
	}
	return name, code, nil
}

// CategoryName validates a category name.
func (v *Validator) CategoryName(name string) (string, error) {
	return entityName(name)
}

func entityName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", InvalidName, "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", invalid("name", TooLong, "exceeds %d characters", maxNameLength)
	}
	return name, nil
}
