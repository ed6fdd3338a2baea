package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emberhall/vanir/internal/events"
	"github.com/emberhall/vanir/internal/money"
	"github.com/emberhall/vanir/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, gateway payment.Gateway) (*payment.Processor, *events.Bus) {
	t.Helper()

	reg, err := payment.NewRegistry(payment.DefaultMethods()...)
	require.NoError(t, err)

	bus := events.NewBus()
	return payment.NewProcessor(reg, gateway, bus), bus
}

func TestSettleUnknownMethod(t *testing.T) {
	p, _ := newTestProcessor(t, payment.NewMockGateway())

	attempt, err := p.Settle(context.Background(), payment.SettleParams{
		CartTotal: 1000,
		MethodID:  "barter",
	})

	assert.Nil(t, attempt)
	assert.ErrorIs(t, err, payment.ErrUnknownMethod)
}

func TestSettleCashAlwaysSucceeds(t *testing.T) {
	// Cash is deterministic: no fee, no limit, no probabilistic draw.
	gateway := payment.NewSimulatedGateway(
		payment.WithLatency(time.Millisecond, 2*time.Millisecond),
		payment.WithSeed(1),
	)
	p, _ := newTestProcessor(t, gateway)

	for i := 0; i < 25; i++ {
		attempt, err := p.Settle(context.Background(), payment.SettleParams{
			CartTotal: 8850,
			MethodID:  "cash",
			Operator:  "reg-1",
		})

		require.NoError(t, err)
		assert.Equal(t, payment.StateSucceeded, attempt.State)
		assert.Equal(t, money.Cents(0), attempt.Fee)
		assert.Equal(t, money.Cents(8850), attempt.AmountCharged)
		assert.NotEmpty(t, attempt.ProviderRef)
	}
}

func TestSettleLimitExceededBeforeGateway(t *testing.T) {
	gateway := payment.NewMockGateway()
	p, _ := newTestProcessor(t, gateway)

	// 12,000,000 charged against card's 5,000,000 limit
	attempt, err := p.Settle(context.Background(), payment.SettleParams{
		CartTotal: 12_000_000,
		MethodID:  "card",
	})

	var limitErr *payment.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, money.Cents(5_000_000), limitErr.Limit)
	assert.Equal(t, money.Cents(12_300_000), limitErr.Attempted) // includes 2.5% fee

	assert.Equal(t, payment.StateFailed, attempt.State)
	assert.Empty(t, gateway.CallLog, "limit check must resolve before any gateway call")
}

func TestSettleDeclined(t *testing.T) {
	gateway := payment.NewMockGateway()
	gateway.ChargeFunc = func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
		return nil, &payment.DeclinedError{MethodID: req.Method.ID, Reason: payment.ReasonInsufficientFunds}
	}
	p, bus := newTestProcessor(t, gateway)

	var resolved []events.SettlementResolved
	bus.Subscribe(events.SubjectSettlementResolved, func(e any) {
		resolved = append(resolved, e.(events.SettlementResolved))
	})

	attempt, err := p.Settle(context.Background(), payment.SettleParams{
		CartTotal: 1000,
		MethodID:  "card",
		Operator:  "reg-1",
	})

	var declined *payment.DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, payment.ReasonInsufficientFunds, declined.Reason)

	assert.Equal(t, payment.StateFailed, attempt.State)
	assert.Equal(t, payment.ReasonInsufficientFunds, attempt.FailureReason)

	require.Len(t, resolved, 1)
	assert.Equal(t, "failed", resolved[0].Outcome)
	assert.Equal(t, payment.ReasonInsufficientFunds, resolved[0].FailureReason)
}

func TestSettleSuccessPublishesEvent(t *testing.T) {
	p, bus := newTestProcessor(t, payment.NewMockGateway())

	var resolved []events.SettlementResolved
	bus.Subscribe(events.SubjectSettlementResolved, func(e any) {
		resolved = append(resolved, e.(events.SettlementResolved))
	})

	attempt, err := p.Settle(context.Background(), payment.SettleParams{
		CartTotal: 8850,
		MethodID:  "card",
		Operator:  "reg-1",
	})

	require.NoError(t, err)
	assert.True(t, attempt.Succeeded())
	assert.Equal(t, money.Cents(9071), attempt.AmountCharged)

	require.Len(t, resolved, 1)
	assert.Equal(t, "succeeded", resolved[0].Outcome)
	assert.Equal(t, attempt.ID, resolved[0].SettlementID)
	assert.Equal(t, "reg-1", resolved[0].Operator)
}

func TestSettleGatewayInfrastructureFailure(t *testing.T) {
	gateway := payment.NewMockGateway()
	gateway.ChargeFunc = func(context.Context, payment.ChargeRequest) (*payment.ChargeResult, error) {
		return nil, errors.New("connection reset")
	}
	p, _ := newTestProcessor(t, gateway)

	attempt, err := p.Settle(context.Background(), payment.SettleParams{
		CartTotal: 1000,
		MethodID:  "card",
	})

	require.Error(t, err)
	var declined *payment.DeclinedError
	assert.False(t, errors.As(err, &declined), "infrastructure failure is not a decline")
	assert.Equal(t, payment.StateFailed, attempt.State)
}

// A retry is always a fresh attempt with a fresh ID; terminal attempts are
// never reused.
func TestSettleRetryCreatesNewAttempt(t *testing.T) {
	declineFirst := true
	gateway := payment.NewMockGateway()
	gateway.ChargeFunc = func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
		if declineFirst {
			declineFirst = false
			return nil, &payment.DeclinedError{MethodID: req.Method.ID, Reason: payment.ReasonNetworkTimeout}
		}
		return &payment.ChargeResult{ProviderRef: "ref-2"}, nil
	}
	p, _ := newTestProcessor(t, gateway)

	params := payment.SettleParams{CartTotal: 1000, MethodID: "card"}

	first, err := p.Settle(context.Background(), params)
	require.Error(t, err)
	second, err := p.Settle(context.Background(), params)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, payment.StateFailed, first.State)
	assert.Equal(t, payment.StateSucceeded, second.State)
}
