package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeGateway collects charges through Stripe Payment Intents.
// It honors the same outcome contract as the simulated gateway: a decline is
// a *DeclinedError with one of the fixed reason strings, anything else is an
// infrastructure failure. The settlement processor's limit check still runs
// before this adapter is called.
type StripeGateway struct {
	currency string
}

// NewStripeGateway configures the Stripe client with the secret key.
// Currency is an ISO 4217 lowercase code, e.g. "usd".
func NewStripeGateway(apiKey, currency string) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, errors.New("payment: stripe api key is required")
	}
	stripe.Key = apiKey

	if currency == "" {
		currency = "usd"
	}
	return &StripeGateway{currency: currency}, nil
}

// Charge creates and confirms a Payment Intent for the amount.
// The settlement ID doubles as the idempotency key, so retrying a dropped
// response cannot double-charge.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount)),
		Currency: stripe.String(g.currency),
		Confirm:  stripe.Bool(true),
		Metadata: map[string]string{
			"settlement_id": req.SettlementID,
			"method_id":     req.Method.ID,
			"operator":      req.Operator,
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.SettlementID)

	pi, err := paymentintent.New(params)
	if err != nil {
		if declined := mapStripeDecline(req.Method.ID, err); declined != nil {
			return nil, declined
		}
		return nil, fmt.Errorf("stripe charge failed: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, &DeclinedError{MethodID: req.Method.ID, Reason: ReasonIssuerDecline}
	}

	return &ChargeResult{ProviderRef: pi.ID}, nil
}

// mapStripeDecline translates Stripe error codes onto the register's fixed
// decline reason set. Returns nil when the error is not a decline.
func mapStripeDecline(methodID string, err error) *DeclinedError {
	var sErr *stripe.Error
	if !errors.As(err, &sErr) {
		return nil
	}

	switch sErr.Code {
	case stripe.ErrorCodeCardDeclined:
		reason := ReasonIssuerDecline
		if sErr.DeclineCode == stripe.DeclineCodeInsufficientFunds {
			reason = ReasonInsufficientFunds
		}
		return &DeclinedError{MethodID: methodID, Reason: reason}
	case stripe.ErrorCodeExpiredCard, stripe.ErrorCodeIncorrectCVC, stripe.ErrorCodeIncorrectNumber:
		return &DeclinedError{MethodID: methodID, Reason: ReasonInvalidCredential}
	case stripe.ErrorCodeProcessingError:
		return &DeclinedError{MethodID: methodID, Reason: ReasonServiceUnavailable}
	case stripe.ErrorCodeRateLimit:
		return &DeclinedError{MethodID: methodID, Reason: ReasonNetworkTimeout}
	}

	return nil
}
