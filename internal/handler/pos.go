package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/emberhall/vanir/internal/cart"
	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/middleware"
	"github.com/emberhall/vanir/internal/money"
	"github.com/emberhall/vanir/internal/payment"
	"github.com/emberhall/vanir/internal/register"
	"github.com/emberhall/vanir/internal/telemetry"
)

// POSHandler serves the register surface: cart mutations, method catalog,
// fee quotes, and checkout.
type POSHandler struct {
	session  *register.Session
	registry *payment.Registry
	logger   *slog.Logger
}

// NewPOSHandler creates a new POS handler.
func NewPOSHandler(session *register.Session, registry *payment.Registry, logger *slog.Logger) *POSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &POSHandler{
		session:  session,
		registry: registry,
		logger:   logger,
	}
}

// AddItemRequest is the payload for POST /pos/cart/items.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Category  string `json:"category"`
}

// UpdateItemRequest is the payload for POST /pos/cart/update.
// Quantity zero removes the line.
type UpdateItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// RemoveItemRequest is the payload for POST /pos/cart/remove.
type RemoveItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// QuoteRequest is the payload for POST /pos/quote.
type QuoteRequest struct {
	MethodID string `json:"method_id" validate:"required"`
}

// CheckoutRequest is the payload for POST /pos/checkout.
type CheckoutRequest struct {
	MethodID string `json:"method_id" validate:"required"`
}

type lineItemResponse struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice money.Cents `json:"unit_price"`
	Quantity  int         `json:"quantity"`
	Category  string      `json:"category,omitempty"`
	Subtotal  money.Cents `json:"subtotal"`
}

type cartResponse struct {
	Items     []lineItemResponse `json:"items"`
	Subtotal  money.Cents        `json:"subtotal"`
	TaxAmount money.Cents        `json:"tax_amount"`
	Total     money.Cents        `json:"total"`
	ItemCount int                `json:"item_count"`
	TaxRate   float64            `json:"tax_rate"`
}

func (h *POSHandler) cartResponse() cartResponse {
	items := h.session.Cart.Items()
	totals := h.session.Cart.Totals()

	resp := cartResponse{
		Items:     make([]lineItemResponse, len(items)),
		Subtotal:  totals.Subtotal,
		TaxAmount: totals.TaxAmount,
		Total:     totals.Total,
		ItemCount: totals.ItemCount,
		TaxRate:   h.session.Cart.TaxRate(),
	}
	for i, item := range items {
		resp.Items[i] = lineItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Category:  item.Category,
			Subtotal:  item.Subtotal(),
		}
	}
	return resp
}

// GetCart handles GET /pos/cart
func (h *POSHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.cartResponse())
}

// AddItem handles POST /pos/cart/items
func (h *POSHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	_, err := h.session.Cart.AddItem(cart.LineItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: money.Cents(req.UnitPrice),
		Quantity:  req.Quantity,
		Category:  req.Category,
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues(h.session.ID, "add").Inc()
	}

	RespondJSON(w, http.StatusOK, h.cartResponse())
}

// UpdateItem handles POST /pos/cart/update
func (h *POSHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	if _, err := h.session.Cart.SetQuantity(req.ProductID, req.Quantity); err != nil {
		RespondError(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues(h.session.ID, "update_quantity").Inc()
	}

	RespondJSON(w, http.StatusOK, h.cartResponse())
}

// RemoveItem handles POST /pos/cart/remove
func (h *POSHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req RemoveItemRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	if _, err := h.session.Cart.RemoveItem(req.ProductID); err != nil {
		RespondError(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.CartUpdated.WithLabelValues(h.session.ID, "remove").Inc()
	}

	RespondJSON(w, http.StatusOK, h.cartResponse())
}

// ClearCart handles POST /pos/cart/clear
func (h *POSHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.Cart.Clear(); err != nil {
		RespondError(w, r, err)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.CartCleared.WithLabelValues(h.session.ID, "manual").Inc()
	}

	RespondJSON(w, http.StatusOK, h.cartResponse())
}

// ListMethods handles GET /pos/methods
func (h *POSHandler) ListMethods(w http.ResponseWriter, r *http.Request) {
	type methodResponse struct {
		ID          string      `json:"id"`
		DisplayName string      `json:"display_name"`
		FeeRate     float64     `json:"fee_rate"`
		Limit       money.Cents `json:"limit"` // 0 means no limit
	}

	methods := h.registry.List()
	resp := make([]methodResponse, len(methods))
	for i, m := range methods {
		resp[i] = methodResponse{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			FeeRate:     m.FeeRate,
			Limit:       m.Limit,
		}
	}

	RespondJSON(w, http.StatusOK, map[string]any{"methods": resp})
}

// Quote handles POST /pos/quote
func (h *POSHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	totals := h.session.Cart.Totals()
	quote, err := h.registry.QuoteFor(totals.Total, req.MethodID)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"method_id":      quote.MethodID,
		"cart_total":     quote.CartTotal,
		"fee":            quote.Fee,
		"amount_charged": quote.AmountCharged,
	})
}

type settlementResponse struct {
	ID            string      `json:"id"`
	MethodID      string      `json:"method_id"`
	State         string      `json:"state"`
	CartTotal     money.Cents `json:"cart_total"`
	Fee           money.Cents `json:"fee"`
	AmountCharged money.Cents `json:"amount_charged"`
	FailureReason string      `json:"failure_reason,omitempty"`
	ProviderRef   string      `json:"provider_ref,omitempty"`
}

func settlementFromAttempt(a *payment.Attempt) settlementResponse {
	return settlementResponse{
		ID:            a.ID,
		MethodID:      a.MethodID,
		State:         string(a.State),
		CartTotal:     a.CartTotal,
		Fee:           a.Fee,
		AmountCharged: a.AmountCharged,
		FailureReason: a.FailureReason,
		ProviderRef:   a.ProviderRef,
	}
}

// Checkout handles POST /pos/checkout
func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	totals := h.session.Cart.Totals()
	start := time.Now()

	if telemetry.Business != nil {
		telemetry.Business.SettlementsStarted.WithLabelValues(h.session.ID, req.MethodID).Inc()
	}
	telemetry.AddBreadcrumb("checkout", "settlement initiated", map[string]interface{}{
		"method_id":  req.MethodID,
		"cart_total": totals.Total,
		"item_count": totals.ItemCount,
	})

	receipt, err := h.session.Checkout(r.Context(), req.MethodID)

	var reconciliation *register.ReconciliationError
	switch {
	case err == nil:
		h.recordSettled(receipt, totals, time.Since(start))
		RespondJSON(w, http.StatusOK, map[string]any{
			"settlement": settlementFromAttempt(receipt.Attempt),
			"cart":       h.cartResponse(),
		})

	case errors.As(err, &reconciliation):
		// Money collected but stock incomplete: report the settlement as
		// succeeded, flag the decrement failures for manual follow-up.
		h.recordSettled(receipt, totals, time.Since(start))
		telemetry.CaptureReconciliation(err, reconciliation.SettlementID, map[string]interface{}{
			"failed_adjustments": reconciliation.Partial.FailedCount(),
		})
		RespondJSON(w, http.StatusOK, map[string]any{
			"settlement":     settlementFromAttempt(receipt.Attempt),
			"cart":           h.cartResponse(),
			"reconciliation": reconciliation.Error(),
		})

	case receipt != nil && receipt.Attempt != nil:
		// Failed settlement: attach the terminal attempt so the operator
		// sees the reason alongside the error.
		if telemetry.Business != nil {
			telemetry.Business.SettlementsFailed.
				WithLabelValues(h.session.ID, req.MethodID, receipt.Attempt.FailureReason).Inc()
		}
		middleware.GetLogger(r.Context()).Info("settlement failed",
			"settlement_id", receipt.Attempt.ID,
			"reason", receipt.Attempt.FailureReason,
		)
		code := domain.ErrorCode(err)
		RespondJSON(w, ErrorCodeToHTTPStatus(code), map[string]any{
			"settlement": settlementFromAttempt(receipt.Attempt),
			"error": map[string]string{
				"code":    code,
				"message": domain.ErrorMessage(err),
			},
		})

	default:
		RespondError(w, r, err)
	}
}

func (h *POSHandler) recordSettled(receipt *register.Receipt, totals cart.Totals, elapsed time.Duration) {
	if telemetry.Business == nil {
		return
	}
	a := receipt.Attempt
	telemetry.Business.SettlementsSucceeded.WithLabelValues(h.session.ID, a.MethodID).Inc()
	telemetry.Business.SettlementLatency.WithLabelValues(h.session.ID, a.MethodID).Observe(elapsed.Seconds())
	telemetry.Business.CartValue.WithLabelValues(h.session.ID).Observe(float64(totals.Total))
	telemetry.Business.CartItemCount.WithLabelValues(h.session.ID).Observe(float64(totals.ItemCount))
	telemetry.Business.FeesCollected.WithLabelValues(h.session.ID, a.MethodID).Add(float64(a.Fee))
	telemetry.Business.RevenueCollected.WithLabelValues(h.session.ID, a.MethodID).Add(float64(a.AmountCharged))
	telemetry.Business.CartCleared.WithLabelValues(h.session.ID, "settled").Inc()
}
