// Package inventory applies signed stock adjustments to product stock
// records and keeps the derived status consistent. Sales, reorder receipts,
// and manual corrections all funnel through the same adjustment path.
package inventory

import (
	"time"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/money"
	"github.com/emberhall/vanir/internal/stock"
)

// Well-known adjustment reason codes. Manual negative adjustments require a
// reason from the operator; system-originated adjustments use these.
const (
	ReasonSale    = "sale"
	ReasonReorder = "reorder"
)

var (
	// ErrMissingReason is returned for a negative adjustment without a
	// reason code. Never silently defaulted; the operator is re-prompted.
	ErrMissingReason = &domain.Error{Code: domain.EINVALID, Message: "A reason is required when reducing stock"}

	// ErrZeroDelta is returned for an adjustment that would change nothing.
	ErrZeroDelta = &domain.Error{Code: domain.EINVALID, Message: "Adjustment delta cannot be zero"}
)

// Record is a product's stock entry. Status is always derived from
// CurrentStock and MinimumStock, never stored as independent truth.
type Record struct {
	ProductID      string
	CurrentStock   int64
	MinimumStock   int64
	MaximumStock   int64
	Status         stock.Status
	LastAdjustedAt time.Time
}

// SuggestedReorder returns the quantity that would bring the record back to
// its configured maximum.
func (r Record) SuggestedReorder() int64 {
	return stock.SuggestReorderQuantity(r.CurrentStock, r.MaximumStock)
}

// AdjustmentRequest is one signed stock-quantity change. Each request is
// applied exactly once; a retry is a new request.
type AdjustmentRequest struct {
	ID         string
	ProductID  string
	Delta      int64
	ReasonCode string
	Operator   string
}

// Validate enforces the request-level rules before any record is touched.
func (req AdjustmentRequest) Validate() error {
	if req.Delta == 0 {
		return ErrZeroDelta
	}
	if req.Delta < 0 && req.ReasonCode == "" {
		return ErrMissingReason
	}
	return nil
}

// Apply returns the record after the adjustment. Stock never goes negative:
// a delta that would drive it below zero is clamped to the floor rather than
// rejected. A register cannot block a sale mid-transaction, so oversell is
// absorbed here and made visible through the derived status.
func Apply(rec Record, req AdjustmentRequest) (Record, error) {
	if err := req.Validate(); err != nil {
		return rec, err
	}

	rec.CurrentStock = money.ClampNonNegative(rec.CurrentStock + req.Delta)
	rec.Status = stock.EvaluateStatus(rec.CurrentStock, rec.MinimumStock)
	rec.LastAdjustedAt = time.Now()
	return rec, nil
}
