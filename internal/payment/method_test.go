package payment_test

import (
	"testing"

	"github.com/emberhall/vanir/internal/money"
	"github.com/emberhall/vanir/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name    string
		methods []payment.Method
		wantErr error
	}{
		{
			name:    "missing id",
			methods: []payment.Method{{DisplayName: "Nameless"}},
			wantErr: payment.ErrMethodIDRequired,
		},
		{
			name:    "negative fee rate",
			methods: []payment.Method{{ID: "bad", FeeRate: -0.01}},
			wantErr: payment.ErrInvalidFeeRate,
		},
		{
			name:    "fee rate of one",
			methods: []payment.Method{{ID: "bad", FeeRate: 1.0}},
			wantErr: payment.ErrInvalidFeeRate,
		},
		{
			name: "duplicate id",
			methods: []payment.Method{
				{ID: "cash"},
				{ID: "cash"},
			},
			wantErr: payment.ErrDuplicateMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payment.NewRegistry(tt.methods...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegistryListPreservesOrder(t *testing.T) {
	reg, err := payment.NewRegistry(payment.DefaultMethods()...)
	require.NoError(t, err)

	ids := []string{}
	for _, m := range reg.List() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"cash", "card", "wallet"}, ids)
}

func TestQuoteFor(t *testing.T) {
	reg, err := payment.NewRegistry(payment.DefaultMethods()...)
	require.NoError(t, err)

	quote, err := reg.QuoteFor(8850, "card")
	require.NoError(t, err)

	assert.Equal(t, money.Cents(221), quote.Fee) // 8850 * 0.025 = 221.25, rounds to 221
	assert.Equal(t, money.Cents(9071), quote.AmountCharged)
	assert.Equal(t, money.Cents(8850), quote.CartTotal)
}

func TestQuoteForCashHasNoFee(t *testing.T) {
	reg, err := payment.NewRegistry(payment.DefaultMethods()...)
	require.NoError(t, err)

	quote, err := reg.QuoteFor(8850, "cash")
	require.NoError(t, err)

	assert.Equal(t, money.Cents(0), quote.Fee)
	assert.Equal(t, money.Cents(8850), quote.AmountCharged)
}

func TestQuoteForUnknownMethod(t *testing.T) {
	reg, err := payment.NewRegistry(payment.DefaultMethods()...)
	require.NoError(t, err)

	_, err = reg.QuoteFor(100, "cheque")
	assert.ErrorIs(t, err, payment.ErrUnknownMethod)
}

// Quoting is a pure preview: identical inputs yield identical output and no
// observable state changes between calls.
func TestQuoteForIdempotent(t *testing.T) {
	reg, err := payment.NewRegistry(payment.DefaultMethods()...)
	require.NoError(t, err)

	first, err := reg.QuoteFor(123456, "wallet")
	require.NoError(t, err)
	second, err := reg.QuoteFor(123456, "wallet")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCashEquivalent(t *testing.T) {
	assert.True(t, payment.Method{ID: "cash"}.CashEquivalent())
	assert.False(t, payment.Method{ID: "card", FeeRate: 0.025, Limit: 5_000_000}.CashEquivalent())
	assert.False(t, payment.Method{ID: "free-but-capped", Limit: 1000}.CashEquivalent())
}
