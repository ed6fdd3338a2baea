package stock

import "testing"

func TestEvaluateStatus(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		minimum int64
		want    Status
	}{
		{name: "zero stock", current: 0, minimum: 10, want: StatusOutOfStock},
		{name: "zero stock with zero minimum", current: 0, minimum: 0, want: StatusOutOfStock},
		{name: "below minimum", current: 2, minimum: 10, want: StatusLowStock},
		{name: "exactly at minimum", current: 10, minimum: 10, want: StatusLowStock},
		{name: "just above minimum", current: 11, minimum: 10, want: StatusInStock},
		{name: "healthy stock", current: 500, minimum: 10, want: StatusInStock},
		{name: "one unit with zero minimum", current: 1, minimum: 0, want: StatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateStatus(tt.current, tt.minimum); got != tt.want {
				t.Errorf("EvaluateStatus(%d, %d) = %v, want %v", tt.current, tt.minimum, got, tt.want)
			}
		})
	}
}

// Increasing stock for a fixed minimum must never move the status backward
// toward out of stock.
func TestEvaluateStatusMonotonic(t *testing.T) {
	rank := map[Status]int{
		StatusOutOfStock: 0,
		StatusLowStock:   1,
		StatusInStock:    2,
	}

	const minimum = 10
	prev := EvaluateStatus(0, minimum)
	for current := int64(1); current <= 30; current++ {
		got := EvaluateStatus(current, minimum)
		if rank[got] < rank[prev] {
			t.Fatalf("status regressed from %v to %v at current=%d", prev, got, current)
		}
		prev = got
	}
}

func TestSuggestReorderQuantity(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		maximum int64
		want    int64
	}{
		{name: "low stock", current: 2, maximum: 100, want: 98},
		{name: "full", current: 100, maximum: 100, want: 0},
		{name: "over maximum", current: 120, maximum: 100, want: 0},
		{name: "empty", current: 0, maximum: 50, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestReorderQuantity(tt.current, tt.maximum); got != tt.want {
				t.Errorf("SuggestReorderQuantity(%d, %d) = %d, want %d", tt.current, tt.maximum, got, tt.want)
			}
		})
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLowStock.Label(); got != "Low Stock" {
		t.Errorf("Label() = %q, want %q", got, "Low Stock")
	}
}
