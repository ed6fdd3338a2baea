package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/emberhall/vanir/internal/domain"
)

// Store persists stock records and their adjustment history.
// Implementations: postgres.StockStore, MemoryStore.
type Store interface {
	// Get returns the stock record for a product.
	Get(ctx context.Context, productID string) (*Record, error)

	// List returns all stock records, ordered by product ID.
	List(ctx context.Context) ([]Record, error)

	// Put inserts or replaces a stock record without recording an adjustment.
	// Used for catalog seeding and threshold edits.
	Put(ctx context.Context, rec Record) error

	// Save writes the adjusted record and its adjustment audit row as one
	// unit. Either both persist or neither does.
	Save(ctx context.Context, rec Record, req AdjustmentRequest) error

	// Adjustments returns a product's audit trail, newest first, capped at
	// limit entries. A non-positive limit selects the store default.
	Adjustments(ctx context.Context, productID string, limit int) ([]AdjustmentRequest, error)
}

// MemoryStore is an in-memory Store for tests and single-register demos.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	history []AdjustmentRequest
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Get returns the stock record for a product.
func (s *MemoryStore) Get(_ context.Context, productID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[productID]
	if !ok {
		return nil, domain.NotFound("inventory.get", "stock record", productID)
	}
	return &rec, nil
}

// List returns all stock records, ordered by product ID.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Put inserts or replaces a stock record.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ProductID] = rec
	return nil
}

// Save replaces the record and appends the adjustment to the history.
func (s *MemoryStore) Save(_ context.Context, rec Record, req AdjustmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ProductID] = rec
	s.history = append(s.history, req)
	return nil
}

// Adjustments returns a product's audit trail, newest first.
func (s *MemoryStore) Adjustments(_ context.Context, productID string, limit int) ([]AdjustmentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var out []AdjustmentRequest
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		if s.history[i].ProductID == productID {
			out = append(out, s.history[i])
		}
	}
	return out, nil
}

// History returns the applied adjustments in order. Test helper.
func (s *MemoryStore) History() []AdjustmentRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AdjustmentRequest, len(s.history))
	copy(out, s.history)
	return out
}
