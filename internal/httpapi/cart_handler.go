package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
)

type CartHandler struct {
	timeout time.Duration
}

func NewCartHandler(timeout time.Duration) *CartHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &CartHandler{timeout: timeout}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	api, ok := cart.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no cart for session")
		return
	}
	writeJSON(w, http.StatusOK, api.Snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	api, ok := cart.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no cart for session")
		return
	}

	var body struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	if body.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	api.AddItem(ctx, cart.Item{ID: body.ID, Quantity: body.Quantity})
	writeJSON(w, http.StatusOK, api.Snapshot())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.itemAction(w, r, cart.API.RemoveItem)
}

func (h *CartHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	h.itemAction(w, r, cart.API.IncrementItemQuantity)
}

func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.itemAction(w, r, cart.API.DecrementItemQuantity)
}

func (h *CartHandler) itemAction(w http.ResponseWriter, r *http.Request, op func(cart.API, context.Context, string)) {
	api, ok := cart.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no cart for session")
		return
	}

	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "missing itemId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	op(api, ctx, itemID)
	writeJSON(w, http.StatusOK, api.Snapshot())
}

// Checkout places the cart as an order. The body is the free-form order
// details; the response redirects to the order's success view.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	api, ok := cart.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no cart for session")
		return
	}

	details := cart.OrderDetails{}
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := api.Checkout(ctx, details, func(path string) {
		w.Header().Set("Location", path)
	})
	if errors.Is(err, cart.ErrEmptyCart) {
		writeError(w, http.StatusConflict, "cart is empty")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to checkout")
		return
	}

	writeJSON(w, http.StatusSeeOther, order)
}

func (h *CartHandler) OrderSuccess(w http.ResponseWriter, r *http.Request) {
	api, ok := cart.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no cart for session")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid orderId")
		return
	}

	order, found := api.Order(orderID)
	if !found {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
