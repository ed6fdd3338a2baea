// Package payment holds the payment method catalog, fee quoting, and the
// settlement state machine for the POS register.
package payment

import (
	"github.com/emberhall/vanir/internal/money"
)

// NoLimit marks a method without a per-transaction ceiling.
const NoLimit money.Cents = 0

// Method is one entry in the payment method catalog. Methods are process-wide
// configuration: immutable, never created or destroyed at runtime.
type Method struct {
	ID          string
	DisplayName string

	// FeeRate is the surcharge applied on top of the cart total, 0 <= rate < 1.
	FeeRate float64

	// Limit is the per-transaction ceiling on the charged amount.
	// NoLimit means unbounded.
	Limit money.Cents

	// SuccessProbability drives the simulated gateway outcome for
	// non-cash-equivalent methods. A real gateway adapter ignores it.
	SuccessProbability float64
}

// CashEquivalent reports whether the method settles deterministically:
// no fee, no limit, no gateway involvement.
func (m Method) CashEquivalent() bool {
	return m.FeeRate == 0 && m.Limit == NoLimit
}

// Quote is a fee preview for charging a cart total to a method.
type Quote struct {
	MethodID      string
	CartTotal     money.Cents
	Fee           money.Cents
	AmountCharged money.Cents
}

// Registry is the static catalog of payment methods. It serves both fee
// preview and settlement; quoting never mutates state.
type Registry struct {
	order   []string
	methods map[string]Method
}

// NewRegistry builds a catalog from the given methods, preserving order for
// display. Later methods with a duplicate ID are rejected.
func NewRegistry(methods ...Method) (*Registry, error) {
	r := &Registry{
		methods: make(map[string]Method, len(methods)),
	}

	for _, m := range methods {
		if m.ID == "" {
			return nil, ErrMethodIDRequired
		}
		if m.FeeRate < 0 || m.FeeRate >= 1 {
			return nil, ErrInvalidFeeRate
		}
		if _, dup := r.methods[m.ID]; dup {
			return nil, ErrDuplicateMethod
		}
		r.methods[m.ID] = m
		r.order = append(r.order, m.ID)
	}

	return r, nil
}

// DefaultMethods returns the catalog the register ships with.
// Limits and fee rates are in minor currency units and fractions.
func DefaultMethods() []Method {
	return []Method{
		{
			ID:          "cash",
			DisplayName: "Cash",
			FeeRate:     0,
			Limit:       NoLimit,
		},
		{
			ID:                 "card",
			DisplayName:        "Credit / Debit Card",
			FeeRate:            0.025,
			Limit:              5_000_000,
			SuccessProbability: 0.95,
		},
		{
			ID:                 "wallet",
			DisplayName:        "Mobile Wallet",
			FeeRate:            0.015,
			Limit:              2_000_000,
			SuccessProbability: 0.90,
		},
	}
}

// Get returns the method for id, or ErrUnknownMethod.
func (r *Registry) Get(id string) (Method, error) {
	m, ok := r.methods[id]
	if !ok {
		return Method{}, ErrUnknownMethod
	}
	return m, nil
}

// List returns all methods in registration order.
func (r *Registry) List() []Method {
	out := make([]Method, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.methods[id])
	}
	return out
}

// QuoteFor previews the fee and charged amount for a cart total.
// Idempotent: callable repeatedly with identical inputs for identical output.
func (r *Registry) QuoteFor(cartTotal money.Cents, methodID string) (*Quote, error) {
	m, err := r.Get(methodID)
	if err != nil {
		return nil, err
	}

	fee := money.ApplyRate(cartTotal, m.FeeRate)
	return &Quote{
		MethodID:      m.ID,
		CartTotal:     cartTotal,
		Fee:           fee,
		AmountCharged: cartTotal + fee,
	}, nil
}
