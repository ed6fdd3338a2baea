package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/inventory"
	"github.com/emberhall/vanir/internal/middleware"
	"github.com/emberhall/vanir/internal/stock"
	"github.com/emberhall/vanir/internal/telemetry"
)

// InventoryHandler serves stock records, manual adjustments, and reorders.
type InventoryHandler struct {
	processor *inventory.Processor
	store     inventory.Store
	logger    *slog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(processor *inventory.Processor, store inventory.Store, logger *slog.Logger) *InventoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryHandler{
		processor: processor,
		store:     store,
		logger:    logger,
	}
}

// AdjustRequest is the payload for POST /inventory/adjust.
type AdjustRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	Delta      int64  `json:"delta" validate:"required"` // required rejects zero
	ReasonCode string `json:"reason_code"`
}

// ReorderRequest is the payload for POST /inventory/reorder.
// Quantity zero requests the suggested reorder quantity.
type ReorderRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gte=0"`
}

type adjustmentResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Delta      int64  `json:"delta"`
	ReasonCode string `json:"reason_code"`
	Operator   string `json:"operator"`
}

type recordResponse struct {
	ProductID        string    `json:"product_id"`
	CurrentStock     int64     `json:"current_stock"`
	MinimumStock     int64     `json:"minimum_stock"`
	MaximumStock     int64     `json:"maximum_stock"`
	Status           string    `json:"status"`
	StatusLabel      string    `json:"status_label"`
	SuggestedReorder int64     `json:"suggested_reorder"`
	LastAdjustedAt   time.Time `json:"last_adjusted_at"`
}

func recordFromDomain(rec inventory.Record) recordResponse {
	return recordResponse{
		ProductID:        rec.ProductID,
		CurrentStock:     rec.CurrentStock,
		MinimumStock:     rec.MinimumStock,
		MaximumStock:     rec.MaximumStock,
		Status:           string(rec.Status),
		StatusLabel:      rec.Status.Label(),
		SuggestedReorder: rec.SuggestedReorder(),
		LastAdjustedAt:   rec.LastAdjustedAt,
	}
}

// Get handles GET /inventory/{productID}
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productID")
	if productID == "" {
		RespondError(w, r, domain.Invalid("inventory.get", "Product ID is required"))
		return
	}

	rec, err := h.store.Get(r.Context(), productID)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, recordFromDomain(*rec))
}

// History handles GET /inventory/{productID}/history
func (h *InventoryHandler) History(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productID")
	if productID == "" {
		RespondError(w, r, domain.Invalid("inventory.history", "Product ID is required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondError(w, r, domain.Invalid("inventory.history", "Limit must be a positive integer"))
			return
		}
		limit = n
	}

	// The record lookup distinguishes an unknown product from one with no
	// adjustments yet.
	if _, err := h.store.Get(r.Context(), productID); err != nil {
		RespondError(w, r, err)
		return
	}

	entries, err := h.store.Adjustments(r.Context(), productID, limit)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	resp := make([]adjustmentResponse, len(entries))
	for i, entry := range entries {
		resp[i] = adjustmentResponse{
			ID:         entry.ID,
			ProductID:  entry.ProductID,
			Delta:      entry.Delta,
			ReasonCode: entry.ReasonCode,
			Operator:   entry.Operator,
		}
	}

	RespondJSON(w, http.StatusOK, map[string]any{"adjustments": resp})
}

// List handles GET /inventory
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.List(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}

	resp := make([]recordResponse, len(recs))
	low, out := 0, 0
	for i, rec := range recs {
		resp[i] = recordFromDomain(rec)
		switch rec.Status {
		case stock.StatusLowStock:
			low++
		case stock.StatusOutOfStock:
			out++
		}
	}

	if telemetry.Business != nil {
		telemetry.Business.LowStockProducts.Set(float64(low))
		telemetry.Business.OutOfStockProducts.Set(float64(out))
	}

	RespondJSON(w, http.StatusOK, map[string]any{"records": resp})
}

// Adjust handles POST /inventory/adjust
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	rec, err := h.processor.ApplyAdjustment(r.Context(), inventory.AdjustmentRequest{
		ProductID:  req.ProductID,
		Delta:      req.Delta,
		ReasonCode: req.ReasonCode,
		Operator:   middleware.GetOperator(r.Context()),
	})
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.AdjustmentsRejected.WithLabelValues(adjustErrorType(err)).Inc()
		}
		RespondError(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.AdjustmentsApplied.WithLabelValues(req.ReasonCode).Inc()
	}

	RespondJSON(w, http.StatusOK, recordFromDomain(*rec))
}

// Reorder handles POST /inventory/reorder
func (h *InventoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	rec, err := h.processor.Reorder(r.Context(), req.ProductID, req.Quantity, middleware.GetOperator(r.Context()))
	if err != nil {
		RespondError(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.ReordersIssued.WithLabelValues(rec.ProductID).Inc()
	}

	RespondJSON(w, http.StatusOK, recordFromDomain(*rec))
}

func adjustErrorType(err error) string {
	switch {
	case err == inventory.ErrMissingReason:
		return "missing_reason"
	case err == inventory.ErrZeroDelta:
		return "zero_delta"
	default:
		return "other"
	}
}
