package inventory_test

import (
	"context"
	"testing"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/events"
	"github.com/emberhall/vanir/internal/inventory"
	"github.com/emberhall/vanir/internal/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, recs ...inventory.Record) *inventory.MemoryStore {
	t.Helper()
	store := inventory.NewMemoryStore()
	for _, rec := range recs {
		rec.Status = stock.EvaluateStatus(rec.CurrentStock, rec.MinimumStock)
		require.NoError(t, store.Put(context.Background(), rec))
	}
	return store
}

func TestApplyAdjustmentSaleDecrement(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 20, MinimumStock: 10, MaximumStock: 100,
	})
	p := inventory.NewProcessor(store, nil)

	rec, err := p.ApplyAdjustment(context.Background(), inventory.AdjustmentRequest{
		ProductID:  "prod-1",
		Delta:      -3,
		ReasonCode: inventory.ReasonSale,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(17), rec.CurrentStock)
	assert.Equal(t, stock.StatusInStock, rec.Status)
	assert.False(t, rec.LastAdjustedAt.IsZero())
}

func TestApplyAdjustmentClampsAtZero(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 10, MinimumStock: 5, MaximumStock: 100,
	})
	p := inventory.NewProcessor(store, nil)

	// Oversell is clamped, not rejected
	rec, err := p.ApplyAdjustment(context.Background(), inventory.AdjustmentRequest{
		ProductID:  "prod-1",
		Delta:      -50,
		ReasonCode: inventory.ReasonSale,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.CurrentStock)
	assert.Equal(t, stock.StatusOutOfStock, rec.Status)
}

func TestApplyAdjustmentMissingReason(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 10, MinimumStock: 5, MaximumStock: 100,
	})
	p := inventory.NewProcessor(store, nil)

	_, err := p.ApplyAdjustment(context.Background(), inventory.AdjustmentRequest{
		ProductID: "prod-1",
		Delta:     -1,
	})

	assert.ErrorIs(t, err, inventory.ErrMissingReason)

	// The record is untouched
	rec, err := store.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.CurrentStock)
}

func TestApplyAdjustmentPositiveNeedsNoReason(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 2, MinimumStock: 10, MaximumStock: 100,
	})
	p := inventory.NewProcessor(store, nil)

	rec, err := p.ApplyAdjustment(context.Background(), inventory.AdjustmentRequest{
		ProductID: "prod-1",
		Delta:     20,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(22), rec.CurrentStock)
	assert.Equal(t, stock.StatusInStock, rec.Status)
}

func TestApplyAdjustmentUnknownProduct(t *testing.T) {
	p := inventory.NewProcessor(inventory.NewMemoryStore(), nil)

	_, err := p.ApplyAdjustment(context.Background(), inventory.AdjustmentRequest{
		ProductID:  "ghost",
		Delta:      5,
		ReasonCode: inventory.ReasonReorder,
	})

	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
}

func TestApplyAdjustmentPublishesEvent(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 11, MinimumStock: 10, MaximumStock: 100,
	})
	bus := events.NewBus()
	var got []events.StockAdjusted
	bus.Subscribe(events.SubjectStockAdjusted, func(e any) {
		got = append(got, e.(events.StockAdjusted))
	})
	p := inventory.NewProcessor(store, bus)

	_, err := p.ApplyAdjustment(context.Background(), inventory.AdjustmentRequest{
		ProductID:  "prod-1",
		Delta:      -1,
		ReasonCode: inventory.ReasonSale,
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "prod-1", got[0].ProductID)
	assert.Equal(t, stock.StatusLowStock, got[0].NewStatus)
	assert.Equal(t, int64(10), got[0].NewStock)
}

func TestApplyBatchAllSucceed(t *testing.T) {
	store := seedStore(t,
		inventory.Record{ProductID: "prod-1", CurrentStock: 10, MinimumStock: 2, MaximumStock: 50},
		inventory.Record{ProductID: "prod-2", CurrentStock: 8, MinimumStock: 2, MaximumStock: 50},
	)
	p := inventory.NewProcessor(store, nil)

	results, err := p.ApplyBatch(context.Background(), []inventory.AdjustmentRequest{
		{ProductID: "prod-1", Delta: -2, ReasonCode: inventory.ReasonSale},
		{ProductID: "prod-2", Delta: -1, ReasonCode: inventory.ReasonSale},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.NotNil(t, r.Record)
	}
}

func TestApplyBatchReportsPartialFailure(t *testing.T) {
	store := seedStore(t,
		inventory.Record{ProductID: "prod-1", CurrentStock: 10, MinimumStock: 2, MaximumStock: 50},
	)
	p := inventory.NewProcessor(store, nil)

	// prod-missing fails; prod-1 on either side must still apply
	results, err := p.ApplyBatch(context.Background(), []inventory.AdjustmentRequest{
		{ProductID: "prod-1", Delta: -1, ReasonCode: inventory.ReasonSale},
		{ProductID: "prod-missing", Delta: -1, ReasonCode: inventory.ReasonSale},
		{ProductID: "prod-1", Delta: -2, ReasonCode: inventory.ReasonSale},
	})

	var partial *inventory.PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.FailedCount())
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	rec, err := store.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.CurrentStock)
}

func TestReorderUsesSuggestedQuantity(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 2, MinimumStock: 10, MaximumStock: 100,
	})
	p := inventory.NewProcessor(store, nil)

	rec, err := p.Reorder(context.Background(), "prod-1", 0, "mgr-1")

	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.CurrentStock)
	assert.Equal(t, stock.StatusInStock, rec.Status)

	history := store.History()
	require.Len(t, history, 1)
	assert.Equal(t, int64(98), history[0].Delta)
	assert.Equal(t, inventory.ReasonReorder, history[0].ReasonCode)
}

func TestReorderExplicitQuantity(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 2, MinimumStock: 10, MaximumStock: 100,
	})
	p := inventory.NewProcessor(store, nil)

	rec, err := p.Reorder(context.Background(), "prod-1", 30, "mgr-1")

	require.NoError(t, err)
	assert.Equal(t, int64(32), rec.CurrentStock)
}

func TestReorderAtMaximumIsNoOp(t *testing.T) {
	store := seedStore(t, inventory.Record{
		ProductID: "prod-1", CurrentStock: 100, MinimumStock: 10, MaximumStock: 100,
	})
	p := inventory.NewProcessor(store, nil)

	rec, err := p.Reorder(context.Background(), "prod-1", 0, "mgr-1")

	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.CurrentStock)
	assert.Empty(t, store.History())
}

// Non-negativity holds no matter how negative the delta is.
func TestApplyNonNegativityProperty(t *testing.T) {
	rec := inventory.Record{ProductID: "p", CurrentStock: 10, MinimumStock: 5, MaximumStock: 100}

	for _, delta := range []int64{-1, -10, -11, -1000, -1 << 40} {
		got, err := inventory.Apply(rec, inventory.AdjustmentRequest{
			ProductID:  "p",
			Delta:      delta,
			ReasonCode: inventory.ReasonSale,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.CurrentStock, int64(0), "delta %d", delta)
	}
}
