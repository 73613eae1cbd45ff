package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/ledger/internal/models"
)

func TestStructure(t *testing.T) {
	v := NewValidator(DefaultConfig())

	tests := []struct {
		name   string
		modify func(d *models.TransactionDraft)
		draft  models.TransactionDraft
		want   Violation
	}{
		{"valid income", nil, income("b1", "10.00"), ""},
		{"valid transfer", nil, transfer("b1", "b2", "0.01"), ""},
		{"unknown kind", func(d *models.TransactionDraft) { d.Kind = "refund" }, income("b1", "1"), InvalidKind},
		{"unknown type", func(d *models.TransactionDraft) { d.Type = "gift" }, income("b1", "1"), InvalidType},
		{"missing balance", nil, income("", "1"), MissingBalance},
		{"income with transfer side", func(d *models.TransactionDraft) { d.BalanceToID = "b2" }, income("b1", "1"), UnexpectedField},
		{"transfer missing from", nil, transfer("", "b2", "1"), MissingBalance},
		{"transfer missing to", nil, transfer("b1", " ", "1"), MissingBalance},
		{"transfer same balance", nil, transfer("b1", "b1", "1"), SameBalanceTransfer},
		{"transfer with type", func(d *models.TransactionDraft) { d.Type = models.Income }, transfer("b1", "b2", "1"), UnexpectedField},
		{"zero amount", nil, income("b1", "0"), NonPositiveAmount},
		{"negative amount", nil, income("b1", "-3.00"), NonPositiveAmount},
		{"not a number", nil, income("b1", "ten"), InvalidAmount},
		{"three digits", nil, income("b1", "1.005"), TooManyFractionDigits},
		{"trailing zero digits", nil, income("b1", "1.500"), ""},
		{"largest amount", nil, income("b1", "9999999999999.99"), ""},
		{"fourteen integer digits", nil, income("b1", "10000000000000"), AmountTooLarge},
		{"wraps int64 cents", nil, income("b1", "184467440737095516.17"), AmountTooLarge},
		{"unknown currency", func(d *models.TransactionDraft) { d.Currency = "GBP" }, income("b1", "1"), UnknownCurrency},
		{"lower case currency", func(d *models.TransactionDraft) { d.Currency = "eur" }, income("b1", "1"), UnknownCurrency},
		{"bad date", func(d *models.TransactionDraft) { d.Date = "01/05/2024" }, income("b1", "1"), InvalidDate},
		{"impossible date", func(d *models.TransactionDraft) { d.Date = "2024-02-30" }, income("b1", "1"), InvalidDate},
		{"zero date", func(d *models.TransactionDraft) { d.Date = "0001-01-01" }, income("b1", "1"), InvalidDate},
		{"rfc3339 date", func(d *models.TransactionDraft) { d.Date = "2024-05-01T23:30:00+02:00" }, income("b1", "1"), ""},
		{"long note", func(d *models.TransactionDraft) { d.Note = strings.Repeat("x", 1001) }, income("b1", "1"), TooLong},
		{"long name", func(d *models.TransactionDraft) { d.Name = strings.Repeat("n", 256) }, income("b1", "1"), TooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.draft
			if tt.modify != nil {
				tt.modify(&d)
			}
			txn, err := v.Structure(d)
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, d.Kind, txn.Kind())
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Kind)
			assert.Nil(t, txn)
		})
	}
}

func TestStructureNormalizes(t *testing.T) {
	v := NewValidator(DefaultConfig())

	d := income(" b1 ", "1.500")
	d.Date = "2024-05-01T23:30:00Z"
	d.Name = "  Salary "
	txn, err := v.Structure(d)
	require.NoError(t, err)

	io, ok := txn.(*models.IncomeOutcome)
	require.True(t, ok)
	assert.Equal(t, "b1", io.BalanceID)
	assert.Equal(t, "1.50", io.Amount.StringFixed(2))
	assert.Equal(t, "2024-05-01", io.Date.String())
	assert.Equal(t, "Salary", io.Name)
}

func TestRequireCategory(t *testing.T) {
	v := NewValidator(Config{Currencies: models.NewCurrencySet("EUR"), RequireCategory: true})

	_, err := v.Structure(income("b1", "1"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, MissingCategory, ve.Kind)
	assert.Equal(t, "category_id", ve.Field)

	d := income("b1", "1")
	d.CategoryID = "c1"
	_, err = v.Structure(d)
	assert.NoError(t, err)
}

func TestBalanceFields(t *testing.T) {
	v := NewValidator(DefaultConfig())

	name, code, err := v.BalanceFields("  Savings ", "USD")
	require.NoError(t, err)
	assert.Equal(t, "Savings", name)
	assert.Equal(t, models.Currency("USD"), code)

	_, _, err = v.BalanceFields("", "USD")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, InvalidName, ve.Kind)
}

func TestLocksRelease(t *testing.T) {
	l := newBalanceLocks()
	unlock := l.lock([]string{"b", "a", "b", ""})
	assert.Equal(t, 2, l.size())
	unlock()
	assert.Zero(t, l.size())
}
