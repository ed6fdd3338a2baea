package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberhall/vanir/internal/money"
)

// Gateway charges a settled amount against a payment method.
// Implementations: SimulatedGateway, StripeGateway, MockGateway.
//
// The limit check happens in the settlement processor before Charge is ever
// called; a gateway only sees amounts already within the method's limit.
type Gateway interface {
	// Charge attempts to collect the amount. A decline is reported as a
	// *DeclinedError; any other error is an infrastructure failure.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ChargeRequest carries everything a gateway needs for one charge.
type ChargeRequest struct {
	SettlementID string
	Method       Method
	Amount       money.Cents
	Operator     string
}

// ChargeResult is the gateway's confirmation of a collected charge.
type ChargeResult struct {
	// ProviderRef is the gateway's reference for the charge, shown on the receipt.
	ProviderRef string
}

// SimulatedGateway emulates a payment provider: a bounded, non-zero network
// delay followed by a probability draw against the method's configured
// success rate. Cash-equivalent methods succeed deterministically with no
// draw. Production deployments swap in a real provider adapter behind the
// same Gateway interface.
type SimulatedGateway struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// SimulatedGatewayOption customizes a SimulatedGateway.
type SimulatedGatewayOption func(*SimulatedGateway)

// WithLatency bounds the simulated network delay.
func WithLatency(min, max time.Duration) SimulatedGatewayOption {
	return func(g *SimulatedGateway) {
		g.minLatency = min
		g.maxLatency = max
	}
}

// WithSeed makes the gateway's draws reproducible. Used in tests.
func WithSeed(seed int64) SimulatedGatewayOption {
	return func(g *SimulatedGateway) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSimulatedGateway creates a gateway with defaults suitable for a demo
// register: 200ms-900ms latency and time-seeded draws.
func NewSimulatedGateway(opts ...SimulatedGatewayOption) *SimulatedGateway {
	g := &SimulatedGateway{
		minLatency: 200 * time.Millisecond,
		maxLatency: 900 * time.Millisecond,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Charge sleeps through the simulated latency, then resolves the outcome.
// A charge in flight is not cancellable; it always reaches a terminal result,
// matching how a real provider call behaves once submitted.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	time.Sleep(g.latency())

	// Cash never touches a gateway draw.
	if req.Method.CashEquivalent() {
		return &ChargeResult{ProviderRef: "sim_" + uuid.New().String()}, nil
	}

	if g.draw() > req.Method.SuccessProbability {
		return nil, &DeclinedError{
			MethodID: req.Method.ID,
			Reason:   g.reason(),
		}
	}

	return &ChargeResult{ProviderRef: "sim_" + uuid.New().String()}, nil
}

func (g *SimulatedGateway) latency() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.maxLatency <= g.minLatency {
		return g.minLatency
	}
	return g.minLatency + time.Duration(g.rng.Int63n(int64(g.maxLatency-g.minLatency)))
}

func (g *SimulatedGateway) draw() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *SimulatedGateway) reason() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return DeclineReasons[g.rng.Intn(len(DeclineReasons))]
}
