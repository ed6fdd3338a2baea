// Package stock derives stock-level classifications and reorder suggestions.
// Status is always computed from current and minimum stock, never stored as
// independent truth, so every screen that renders it agrees.
package stock

// Status classifies a product's stock level.
type Status string

const (
	StatusOutOfStock Status = "out_of_stock"
	StatusLowStock   Status = "low_stock"
	StatusInStock    Status = "in_stock"
)

// Label returns the operator-facing display text for a status.
func (s Status) Label() string {
	switch s {
	case StatusOutOfStock:
		return "Out of Stock"
	case StatusLowStock:
		return "Low Stock"
	case StatusInStock:
		return "In Stock"
	default:
		return string(s)
	}
}

// EvaluateStatus maps current stock against the minimum threshold.
// Zero is always out of stock, even when the minimum threshold is zero.
func EvaluateStatus(currentStock, minimumStock int64) Status {
	switch {
	case currentStock <= 0:
		return StatusOutOfStock
	case currentStock <= minimumStock:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// SuggestReorderQuantity returns the quantity needed to bring current stock
// up to the configured maximum. Never negative.
func SuggestReorderQuantity(currentStock, maximumStock int64) int64 {
	if maximumStock <= currentStock {
		return 0
	}
	return maximumStock - currentStock
}
