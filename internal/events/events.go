// Package events defines the typed events the transaction core emits at its
// boundary. The surrounding UI renders them as toasts and badges; the core
// has no knowledge of rendering.
package events

import (
	"time"

	"github.com/emberhall/vanir/internal/money"
	"github.com/emberhall/vanir/internal/stock"
)

// Subjects for published events. NATS subjects double as event names for the
// in-process bus.
const (
	SubjectCartChanged        = "pos.cart.changed"
	SubjectSettlementResolved = "pos.settlement.resolved"
	SubjectStockAdjusted      = "pos.stock.adjusted"
)

// CartChanged is emitted after every cart mutation with the recomputed totals.
type CartChanged struct {
	Subtotal  money.Cents `json:"subtotal"`
	TaxAmount money.Cents `json:"tax_amount"`
	Total     money.Cents `json:"total"`
	ItemCount int         `json:"item_count"`
	At        time.Time   `json:"at"`
}

// SettlementResolved is emitted when a settlement attempt reaches a terminal
// state, successful or not.
type SettlementResolved struct {
	SettlementID  string      `json:"settlement_id,omitempty"`
	MethodID      string      `json:"method_id"`
	Operator      string      `json:"operator,omitempty"`
	AmountCharged money.Cents `json:"amount_charged"`
	Outcome       string      `json:"outcome"` // "succeeded" or "failed"
	FailureReason string      `json:"failure_reason,omitempty"`
	At            time.Time   `json:"at"`
}

// StockAdjusted is emitted after an adjustment is applied to a stock record.
type StockAdjusted struct {
	ProductID  string       `json:"product_id"`
	Delta      int64        `json:"delta"`
	NewStock   int64        `json:"new_stock"`
	NewStatus  stock.Status `json:"new_status"`
	ReasonCode string       `json:"reason_code"`
	At         time.Time    `json:"at"`
}

// Publisher delivers core events to the notification layer.
// Implementations: NATSPublisher, Bus (in-process), NopPublisher.
type Publisher interface {
	// Publish delivers one event. Delivery is best-effort: the core never
	// fails a transaction because a toast could not be shown.
	Publish(subject string, event any) error
}

// NopPublisher discards all events. Used when no notification layer is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }
