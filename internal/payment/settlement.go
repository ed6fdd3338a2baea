package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/events"
	"github.com/emberhall/vanir/internal/money"
)

// State is a settlement attempt's position in its lifecycle.
// Attempts move Initiated -> Processing -> Succeeded | Failed; both branches
// are terminal and there is no automatic retry. A retry is a new attempt.
type State string

const (
	StateInitiated  State = "initiated"
	StateProcessing State = "processing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Attempt records one settlement of a cart total against a method.
// An attempt reaches exactly one terminal outcome and is never reused.
type Attempt struct {
	ID            string
	MethodID      string
	Operator      string
	CartTotal     money.Cents
	Fee           money.Cents
	AmountCharged money.Cents
	State         State
	FailureReason string
	ProviderRef   string
	InitiatedAt   time.Time
	ResolvedAt    time.Time
}

// Succeeded reports whether the attempt reached the successful terminal state.
func (a *Attempt) Succeeded() bool {
	return a.State == StateSucceeded
}

// SettleParams carries the inputs captured at checkout confirmation.
type SettleParams struct {
	CartTotal money.Cents
	MethodID  string
	Operator  string
}

// Processor runs the settlement state machine: fee computation, limit
// enforcement, then the gateway charge. The limit check always resolves
// before any gateway call.
type Processor struct {
	registry  *Registry
	gateway   Gateway
	publisher events.Publisher
}

// NewProcessor wires the settlement state machine. A nil publisher disables
// event emission.
func NewProcessor(registry *Registry, gateway Gateway, publisher events.Publisher) *Processor {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Processor{
		registry:  registry,
		gateway:   gateway,
		publisher: publisher,
	}
}

// Settle runs one attempt to a terminal state and returns it.
// The returned error is the typed failure (*LimitExceededError,
// *DeclinedError, ErrUnknownMethod, or an infrastructure error); the attempt
// itself always records the outcome. The caller's cart must stay read-only
// until Settle returns.
func (p *Processor) Settle(ctx context.Context, params SettleParams) (*Attempt, error) {
	method, err := p.registry.Get(params.MethodID)
	if err != nil {
		return nil, err
	}

	quote, err := p.registry.QuoteFor(params.CartTotal, params.MethodID)
	if err != nil {
		return nil, err
	}

	attempt := &Attempt{
		ID:            uuid.New().String(),
		MethodID:      method.ID,
		Operator:      params.Operator,
		CartTotal:     params.CartTotal,
		Fee:           quote.Fee,
		AmountCharged: quote.AmountCharged,
		State:         StateInitiated,
		InitiatedAt:   time.Now(),
	}

	attempt.State = StateProcessing

	// Limit enforcement resolves before any gateway involvement, so an
	// over-limit attempt fails identically no matter the gateway outcome.
	if method.Limit != NoLimit && attempt.AmountCharged > method.Limit {
		failure := &LimitExceededError{
			MethodID:  method.ID,
			Limit:     method.Limit,
			Attempted: attempt.AmountCharged,
		}
		p.fail(attempt, failure.Error())
		return attempt, failure
	}

	result, err := p.gateway.Charge(ctx, ChargeRequest{
		SettlementID: attempt.ID,
		Method:       method,
		Amount:       attempt.AmountCharged,
		Operator:     params.Operator,
	})
	if err != nil {
		if declined, ok := asDeclined(err); ok {
			p.fail(attempt, declined.Reason)
			return attempt, declined
		}
		p.fail(attempt, "gateway error")
		return attempt, domain.WrapError(err, domain.EINTERNAL, "payment.settle", "gateway charge failed")
	}

	attempt.State = StateSucceeded
	attempt.ProviderRef = result.ProviderRef
	attempt.ResolvedAt = time.Now()

	p.publish(attempt)
	return attempt, nil
}

// fail moves an attempt to the failed terminal state.
func (p *Processor) fail(attempt *Attempt, reason string) {
	attempt.State = StateFailed
	attempt.FailureReason = reason
	attempt.ResolvedAt = time.Now()
	p.publish(attempt)
}

// publish emits SettlementResolved for a terminal attempt.
func (p *Processor) publish(attempt *Attempt) {
	_ = p.publisher.Publish(events.SubjectSettlementResolved, events.SettlementResolved{
		SettlementID:  attempt.ID,
		MethodID:      attempt.MethodID,
		Operator:      attempt.Operator,
		AmountCharged: attempt.AmountCharged,
		Outcome:       string(attempt.State),
		FailureReason: attempt.FailureReason,
		At:            attempt.ResolvedAt,
	})
}

func asDeclined(err error) (*DeclinedError, bool) {
	var declined *DeclinedError
	if errors.As(err, &declined) {
		return declined, true
	}
	return nil, false
}
