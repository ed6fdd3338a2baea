// Package cart maintains the line items of one in-progress transaction and
// keeps the totals consistent with them. A cart belongs to exactly one
// register session; callers never observe totals that are stale relative to
// the items.
package cart

import (
	"sync"
	"time"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/events"
	"github.com/emberhall/vanir/internal/money"
)

var (
	ErrInvalidQuantity = &domain.Error{Code: domain.EINVALID, Message: "Quantity must be greater than 0"}
	ErrCartLocked      = &domain.Error{Code: domain.ECONFLICT, Message: "Cart is locked while a settlement is in progress"}
)

// LineItem is one product line in a cart. Owned exclusively by its cart;
// destroyed when removed or when the cart is cleared.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice money.Cents
	Quantity  int
	Category  string
}

// Subtotal returns the extended amount for the line.
func (li LineItem) Subtotal() money.Cents {
	return money.Line(li.UnitPrice, li.Quantity)
}

// Totals is the aggregate view recomputed after every mutation.
type Totals struct {
	Subtotal  money.Cents
	TaxAmount money.Cents
	Total     money.Cents
	ItemCount int
}

// Cart aggregates line items for one open transaction.
// Items are ordered by insertion and keyed by product ID.
type Cart struct {
	mu        sync.Mutex
	taxRate   float64
	items     []LineItem
	totals    Totals
	locked    bool
	publisher events.Publisher
}

// New creates an empty cart with a fixed tax rate (e.g. 0.18 for 18%).
// The publisher receives a CartChanged event after every mutation; pass
// events.NopPublisher{} when no notification layer is wired.
func New(taxRate float64, publisher events.Publisher) *Cart {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Cart{
		taxRate:   taxRate,
		publisher: publisher,
	}
}

// AddItem appends a new line item, or increments the quantity when the
// product is already in the cart. Quantity must be positive.
func (c *Cart) AddItem(item LineItem) (Totals, error) {
	if item.Quantity <= 0 {
		return c.Totals(), ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locked {
		return c.totals, ErrCartLocked
	}

	if i, ok := c.find(item.ProductID); ok {
		c.items[i].Quantity += item.Quantity
	} else {
		c.items = append(c.items, item)
	}

	return c.recompute(), nil
}

// RemoveItem removes a product's line item. Removing an absent product is a
// no-op, not an error.
func (c *Cart) RemoveItem(productID string) (Totals, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locked {
		return c.totals, ErrCartLocked
	}

	i, ok := c.find(productID)
	if !ok {
		return c.totals, nil
	}

	c.items = append(c.items[:i], c.items[i+1:]...)
	return c.recompute(), nil
}

// SetQuantity replaces a line item's quantity. A quantity of zero or less is
// equivalent to RemoveItem.
func (c *Cart) SetQuantity(productID string, quantity int) (Totals, error) {
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locked {
		return c.totals, ErrCartLocked
	}

	i, ok := c.find(productID)
	if !ok {
		return c.totals, nil
	}

	c.items[i].Quantity = quantity
	return c.recompute(), nil
}

// Clear empties the cart and resets totals to zero.
func (c *Cart) Clear() (Totals, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locked {
		return c.totals, ErrCartLocked
	}

	c.items = nil
	return c.recompute(), nil
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Totals returns the current aggregate totals.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Empty reports whether the cart has no items.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// TaxRate returns the fixed tax rate the cart was created with.
func (c *Cart) TaxRate() float64 {
	return c.taxRate
}

// Lock freezes the cart for the duration of a settlement so a concurrent
// mutation cannot invalidate the total already captured in the attempt.
func (c *Cart) Lock() {
	c.mu.Lock()
	c.locked = true
	c.mu.Unlock()
}

// Unlock lifts the settlement freeze.
func (c *Cart) Unlock() {
	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
}

// ClearSettled empties the cart after a successful settlement, bypassing the
// settlement lock. Only the register session calls this.
func (c *Cart) ClearSettled() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return c.recompute()
}

// find locates a line item by product ID. Caller must hold c.mu.
func (c *Cart) find(productID string) (int, bool) {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i, true
		}
	}
	return 0, false
}

// recompute rebuilds totals from the items and publishes CartChanged.
// Caller must hold c.mu; totals are never observable mid-update.
func (c *Cart) recompute() Totals {
	var subtotal money.Cents
	var count int
	for _, item := range c.items {
		subtotal += item.Subtotal()
		count += item.Quantity
	}

	tax := money.ApplyRate(subtotal, c.taxRate)
	c.totals = Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal + tax,
		ItemCount: count,
	}

	_ = c.publisher.Publish(events.SubjectCartChanged, events.CartChanged{
		Subtotal:  c.totals.Subtotal,
		TaxAmount: c.totals.TaxAmount,
		Total:     c.totals.Total,
		ItemCount: c.totals.ItemCount,
		At:        time.Now(),
	})

	return c.totals
}
