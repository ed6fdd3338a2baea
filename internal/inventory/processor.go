package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emberhall/vanir/internal/events"
	"github.com/emberhall/vanir/internal/telemetry"
)

// Result is the outcome of one adjustment within a batch.
type Result struct {
	Request AdjustmentRequest
	Record  *Record
	Err     error
}

// PartialFailureError reports a batch where some adjustments failed after
// others applied. This is the one error class that must never be swallowed:
// by the time it surfaces, money may already have been collected while stock
// state is inconsistent, so it is routed to manual reconciliation.
type PartialFailureError struct {
	Results []Result
}

func (e *PartialFailureError) Error() string {
	var failed []string
	for _, r := range e.Results {
		if r.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", r.Request.ProductID, r.Err))
		}
	}
	return fmt.Sprintf("inventory: %d of %d adjustments failed: %s",
		len(failed), len(e.Results), strings.Join(failed, "; "))
}

// FailedCount returns how many adjustments in the batch failed.
func (e *PartialFailureError) FailedCount() int {
	n := 0
	for _, r := range e.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Processor loads, adjusts, and persists stock records, emitting
// StockAdjusted events as it goes.
type Processor struct {
	store     Store
	publisher events.Publisher
}

// NewProcessor wires an adjustment processor. A nil publisher disables
// event emission.
func NewProcessor(store Store, publisher events.Publisher) *Processor {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Processor{store: store, publisher: publisher}
}

// ApplyAdjustment validates and applies one adjustment, persists the new
// record together with its audit row, and returns the record.
func (p *Processor) ApplyAdjustment(ctx context.Context, req AdjustmentRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	current, err := p.store.Get(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	adjusted, err := Apply(*current, req)
	if err != nil {
		return nil, err
	}

	if telemetry.Business != nil && current.CurrentStock+req.Delta < 0 {
		telemetry.Business.OversellClamped.WithLabelValues(req.ProductID).Inc()
	}

	if err := p.store.Save(ctx, adjusted, req); err != nil {
		return nil, fmt.Errorf("failed to save adjustment for %s: %w", req.ProductID, err)
	}

	_ = p.publisher.Publish(events.SubjectStockAdjusted, events.StockAdjusted{
		ProductID:  adjusted.ProductID,
		Delta:      req.Delta,
		NewStock:   adjusted.CurrentStock,
		NewStatus:  adjusted.Status,
		ReasonCode: req.ReasonCode,
		At:         time.Now(),
	})

	return &adjusted, nil
}

// ApplyBatch applies every adjustment in order and reports per-item results.
// It never stops early: a failure on one item must not silently drop the
// rest. If any item failed, the returned error is a *PartialFailureError
// carrying the full result list.
func (p *Processor) ApplyBatch(ctx context.Context, reqs []AdjustmentRequest) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	failed := false

	for _, req := range reqs {
		rec, err := p.ApplyAdjustment(ctx, req)
		if err != nil {
			failed = true
		}
		results = append(results, Result{Request: req, Record: rec, Err: err})
	}

	if failed {
		return results, &PartialFailureError{Results: results}
	}
	return results, nil
}

// Reorder receives stock against a product. When quantity is zero or
// negative, the suggested reorder quantity (up to the configured maximum)
// is used instead.
func (p *Processor) Reorder(ctx context.Context, productID string, quantity int64, operator string) (*Record, error) {
	if quantity <= 0 {
		rec, err := p.store.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		quantity = rec.SuggestedReorder()
		if quantity == 0 {
			// Already at or above maximum; nothing to receive.
			return rec, nil
		}
	}

	return p.ApplyAdjustment(ctx, AdjustmentRequest{
		ProductID:  productID,
		Delta:      quantity,
		ReasonCode: ReasonReorder,
		Operator:   operator,
	})
}
