package payment

import (
	"fmt"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/money"
)

var (
	// ErrUnknownMethod is returned when a quote or settlement names a method
	// that is not in the catalog. Not retryable without correcting the input.
	ErrUnknownMethod = &domain.Error{Code: domain.ENOTFOUND, Message: "Unknown payment method"}

	// ErrMethodIDRequired is returned when a catalog entry has no ID.
	ErrMethodIDRequired = &domain.Error{Code: domain.EINVALID, Message: "Payment method ID is required"}

	// ErrInvalidFeeRate is returned when a catalog entry's fee rate is outside [0, 1).
	ErrInvalidFeeRate = &domain.Error{Code: domain.EINVALID, Message: "Fee rate must be in [0, 1)"}

	// ErrDuplicateMethod is returned when two catalog entries share an ID.
	ErrDuplicateMethod = &domain.Error{Code: domain.ECONFLICT, Message: "Duplicate payment method ID"}
)

// Decline reasons surfaced verbatim to the operator. The simulated gateway
// picks one uniformly at random; a real gateway adapter maps provider codes
// onto the same set.
const (
	ReasonInsufficientFunds  = "insufficient funds"
	ReasonNetworkTimeout     = "network timeout"
	ReasonInvalidCredential  = "invalid credential"
	ReasonIssuerDecline      = "issuer decline"
	ReasonServiceUnavailable = "service unavailable"
)

// DeclineReasons lists every reason a gateway may report.
var DeclineReasons = []string{
	ReasonInsufficientFunds,
	ReasonNetworkTimeout,
	ReasonInvalidCredential,
	ReasonIssuerDecline,
	ReasonServiceUnavailable,
}

// LimitExceededError is returned when the charged amount is over the method's
// per-transaction limit. The limit check runs before any gateway call, so the
// operator always sees the limit and the attempted amount.
type LimitExceededError struct {
	MethodID  string
	Limit     money.Cents
	Attempted money.Cents
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("payment: amount %d exceeds %s per-transaction limit %d", e.Attempted, e.MethodID, e.Limit)
}

// ErrorCode maps the failure onto the payment-required status.
func (e *LimitExceededError) ErrorCode() string { return domain.EPAYMENT }

// DeclinedError is returned when the gateway declines the charge.
// Recoverable: the operator may retry or switch methods; the cart is intact.
type DeclinedError struct {
	MethodID string
	Reason   string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment: %s declined: %s", e.MethodID, e.Reason)
}

// ErrorCode maps the failure onto the payment-required status.
func (e *DeclinedError) ErrorCode() string { return domain.EPAYMENT }
