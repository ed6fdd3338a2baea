// Package register owns the state of one operator session at a POS register:
// its open cart, the settlement in flight, and the sale decrements that
// follow a successful settlement. The UI is a pure observer/dispatcher; all
// transaction state lives here.
package register

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/emberhall/vanir/internal/cart"
	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/inventory"
	"github.com/emberhall/vanir/internal/payment"
)

var (
	// ErrCartEmpty is returned when checkout is requested with nothing to sell.
	ErrCartEmpty = &domain.Error{Code: domain.EINVALID, Message: "Cart is empty"}

	// ErrSettlementInProgress is returned when a checkout is requested while
	// another settlement has not reached a terminal state. A settlement in
	// flight is not cancellable; the operator can only react after it
	// resolves.
	ErrSettlementInProgress = &domain.Error{Code: domain.ECONFLICT, Message: "A settlement is already in progress"}
)

// Receipt is the outcome of one checkout: the terminal settlement attempt,
// the lines it covered, and the stock decrements that followed.
type Receipt struct {
	Attempt     *payment.Attempt
	Lines       []cart.LineItem
	Totals      cart.Totals
	Adjustments []inventory.Result
}

// ReconciliationError reports that money was collected but one or more sale
// decrements did not apply. It is urgent at the UI level and is surfaced for
// manual reconciliation, never swallowed.
type ReconciliationError struct {
	SettlementID string
	Partial      *inventory.PartialFailureError
}

func (e *ReconciliationError) Error() string {
	return "settlement " + e.SettlementID + " collected but stock is inconsistent: " + e.Partial.Error()
}

func (e *ReconciliationError) Unwrap() error {
	return e.Partial
}

// Session is one operator's register session. Exactly one operator works a
// session, so cart mutations are naturally serialized; the session still
// guards checkout so overlapping HTTP requests cannot interleave settlements.
type Session struct {
	ID       string
	Operator string
	Cart     *cart.Cart

	payments  *payment.Processor
	inventory *inventory.Processor
	logger    *slog.Logger

	mu       sync.Mutex
	settling bool
}

// NewSession opens a register session with an empty cart.
func NewSession(operator string, c *cart.Cart, payments *payment.Processor, inv *inventory.Processor, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:        uuid.New().String(),
		Operator:  operator,
		Cart:      c,
		payments:  payments,
		inventory: inv,
		logger:    logger,
	}
}

// Checkout settles the cart total against the chosen method and, on success,
// clears the cart and applies one sale decrement per line item as a single
// batch. On a failed settlement the cart is left untouched for retry.
//
// The cart is locked for the whole settlement so the total captured in the
// attempt cannot be invalidated mid-flight.
func (s *Session) Checkout(ctx context.Context, methodID string) (*Receipt, error) {
	s.mu.Lock()
	if s.settling {
		s.mu.Unlock()
		return nil, ErrSettlementInProgress
	}
	s.settling = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.settling = false
		s.mu.Unlock()
	}()

	if s.Cart.Empty() {
		return nil, ErrCartEmpty
	}

	lines := s.Cart.Items()
	totals := s.Cart.Totals()

	s.Cart.Lock()
	defer s.Cart.Unlock()

	attempt, err := s.payments.Settle(ctx, payment.SettleParams{
		CartTotal: totals.Total,
		MethodID:  methodID,
		Operator:  s.Operator,
	})
	if err != nil {
		// Terminal but recoverable: the cart stays intact for a retry or a
		// different method.
		s.logger.Info("settlement failed",
			"session_id", s.ID,
			"method_id", methodID,
			"error", err,
		)
		return &Receipt{Attempt: attempt, Lines: lines, Totals: totals}, err
	}

	s.Cart.ClearSettled()

	reqs := make([]inventory.AdjustmentRequest, len(lines))
	for i, line := range lines {
		reqs[i] = inventory.AdjustmentRequest{
			ProductID:  line.ProductID,
			Delta:      -int64(line.Quantity),
			ReasonCode: inventory.ReasonSale,
			Operator:   s.Operator,
		}
	}

	results, err := s.inventory.ApplyBatch(ctx, reqs)
	receipt := &Receipt{
		Attempt:     attempt,
		Lines:       lines,
		Totals:      totals,
		Adjustments: results,
	}

	if err != nil {
		var partial *inventory.PartialFailureError
		if !errors.As(err, &partial) {
			return receipt, err
		}
		reconciliation := &ReconciliationError{
			SettlementID: attempt.ID,
			Partial:      partial,
		}
		s.logger.Error("sale decrements incomplete after settlement",
			"session_id", s.ID,
			"settlement_id", attempt.ID,
			"failed", partial.FailedCount(),
		)
		return receipt, reconciliation
	}

	return receipt, nil
}

// Settling reports whether a settlement is currently in flight. The UI uses
// this to disable checkout controls.
func (s *Session) Settling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settling
}
