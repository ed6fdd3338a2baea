package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhall/vanir/internal/cart"
	"github.com/emberhall/vanir/internal/handler"
	"github.com/emberhall/vanir/internal/inventory"
	"github.com/emberhall/vanir/internal/payment"
	"github.com/emberhall/vanir/internal/register"
	"github.com/emberhall/vanir/internal/stock"
)

func newPOSHandler(t *testing.T, gateway payment.Gateway) (*handler.POSHandler, *inventory.MemoryStore) {
	t.Helper()

	registry, err := payment.NewRegistry(payment.DefaultMethods()...)
	require.NoError(t, err)

	store := inventory.NewMemoryStore()
	rec := inventory.Record{ProductID: "prod-1", CurrentStock: 50, MinimumStock: 10, MaximumStock: 100}
	rec.Status = stock.EvaluateStatus(rec.CurrentStock, rec.MinimumStock)
	require.NoError(t, store.Put(context.Background(), rec))

	session := register.NewSession("op-1",
		cart.New(0.18, nil),
		payment.NewProcessor(registry, gateway, nil),
		inventory.NewProcessor(store, nil),
		nil,
	)

	return handler.NewPOSHandler(session, registry, nil), store
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAddItemComputesTotals(t *testing.T) {
	h, _ := newPOSHandler(t, &payment.MockGateway{})

	rec := postJSON(t, h.AddItem, "/pos/cart/items", handler.AddItemRequest{
		ProductID: "prod-1",
		Name:      "Espresso Beans",
		UnitPrice: 2500,
		Quantity:  3,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 7500, body["subtotal"])
	assert.EqualValues(t, 1350, body["tax_amount"])
	assert.EqualValues(t, 8850, body["total"])
	assert.EqualValues(t, 3, body["item_count"])
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	h, _ := newPOSHandler(t, &payment.MockGateway{})

	rec := postJSON(t, h.AddItem, "/pos/cart/items", handler.AddItemRequest{
		ProductID: "prod-1",
		Name:      "Espresso Beans",
		UnitPrice: 2500,
		Quantity:  0,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "invalid", errBody["code"])
	assert.Contains(t, errBody["fields"], "Quantity")
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	h, _ := newPOSHandler(t, &payment.MockGateway{})

	postJSON(t, h.AddItem, "/pos/cart/items", handler.AddItemRequest{
		ProductID: "prod-1", Name: "Espresso Beans", UnitPrice: 2500, Quantity: 2,
	})

	rec := postJSON(t, h.UpdateItem, "/pos/cart/update", handler.UpdateItemRequest{
		ProductID: "prod-1",
		Quantity:  0,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["items"])
	assert.EqualValues(t, 0, body["total"])
}

func TestQuoteUnknownMethod(t *testing.T) {
	h, _ := newPOSHandler(t, &payment.MockGateway{})

	rec := postJSON(t, h.Quote, "/pos/quote", handler.QuoteRequest{MethodID: "crypto"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuoteCardSurcharge(t *testing.T) {
	h, _ := newPOSHandler(t, &payment.MockGateway{})

	postJSON(t, h.AddItem, "/pos/cart/items", handler.AddItemRequest{
		ProductID: "prod-1", Name: "Espresso Beans", UnitPrice: 2500, Quantity: 3,
	})

	rec := postJSON(t, h.Quote, "/pos/quote", handler.QuoteRequest{MethodID: "card"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 8850, body["cart_total"])
	assert.EqualValues(t, 221, body["fee"])
	assert.EqualValues(t, 9071, body["amount_charged"])
}

func TestCheckoutSuccess(t *testing.T) {
	gateway := &payment.MockGateway{
		ChargeFunc: func(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
			return &payment.ChargeResult{ProviderRef: "ref-1"}, nil
		},
	}
	h, store := newPOSHandler(t, gateway)

	postJSON(t, h.AddItem, "/pos/cart/items", handler.AddItemRequest{
		ProductID: "prod-1", Name: "Espresso Beans", UnitPrice: 2500, Quantity: 3,
	})

	rec := postJSON(t, h.Checkout, "/pos/checkout", handler.CheckoutRequest{MethodID: "card"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	settlement := body["settlement"].(map[string]any)
	assert.Equal(t, "succeeded", settlement["state"])
	assert.EqualValues(t, 9071, settlement["amount_charged"])

	cartBody := body["cart"].(map[string]any)
	assert.Empty(t, cartBody["items"])

	stored, err := store.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(47), stored.CurrentStock)
}

func TestCheckoutDeclinedReturns402WithAttempt(t *testing.T) {
	gateway := &payment.MockGateway{
		ChargeFunc: func(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
			return nil, &payment.DeclinedError{MethodID: req.Method.ID, Reason: payment.ReasonInsufficientFunds}
		},
	}
	h, _ := newPOSHandler(t, gateway)

	postJSON(t, h.AddItem, "/pos/cart/items", handler.AddItemRequest{
		ProductID: "prod-1", Name: "Espresso Beans", UnitPrice: 2500, Quantity: 1,
	})

	rec := postJSON(t, h.Checkout, "/pos/checkout", handler.CheckoutRequest{MethodID: "card"})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	body := decodeBody(t, rec)
	settlement := body["settlement"].(map[string]any)
	assert.Equal(t, "failed", settlement["state"])
	assert.Equal(t, payment.ReasonInsufficientFunds, settlement["failure_reason"])

	// Cart stays intact for a retry
	cartRec := httptest.NewRecorder()
	h.GetCart(cartRec, httptest.NewRequest(http.MethodGet, "/pos/cart", nil))
	cartBody := decodeBody(t, cartRec)
	assert.Len(t, cartBody["items"], 1)
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	h, _ := newPOSHandler(t, &payment.MockGateway{})

	rec := postJSON(t, h.Checkout, "/pos/checkout", handler.CheckoutRequest{MethodID: "cash"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMethods(t *testing.T) {
	h, _ := newPOSHandler(t, &payment.MockGateway{})

	rec := httptest.NewRecorder()
	h.ListMethods(rec, httptest.NewRequest(http.MethodGet, "/pos/methods", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	methods := body["methods"].([]any)
	require.Len(t, methods, 3)
	first := methods[0].(map[string]any)
	assert.Equal(t, "cash", first["id"])
}
