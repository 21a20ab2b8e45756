package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
)

// deliveryAreas handles GET /api/checkout/delivery-areas.
func (h *Handler) deliveryAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.checkout.DeliveryAreas())
}

// placeOrder handles POST /api/checkout/{session}/orders for cash and
// transfer payments.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	o, err := h.checkout.PlaceOrder(r.Context(), chi.URLParam(r, "session"), req.form(), order.PaymentMethod(req.PaymentMethod))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrder(o))
}

// startCardPayment handles POST /api/checkout/{session}/payments. The
// response is the Paystack widget configuration.
func (h *Handler) startCardPayment(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	s, err := h.checkout.StartCardPayment(r.Context(), chi.URLParam(r, "session"), req.form())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// completeCardPayment handles POST /api/checkout/{session}/payments/complete
// after the widget reports success.
func (h *Handler) completeCardPayment(w http.ResponseWriter, r *http.Request) {
	var req completePaymentRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	o, err := h.checkout.CompleteCardPayment(r.Context(), chi.URLParam(r, "session"), req.form(), payment.Outcome{
		Reference:     req.Reference,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrder(o))
}

// cancelCardPayment handles POST
// /api/checkout/{session}/payments/{reference}/cancel when the widget is
// closed without paying.
func (h *Handler) cancelCardPayment(w http.ResponseWriter, r *http.Request) {
	err := h.checkout.CancelCardPayment(r.Context(), chi.URLParam(r, "session"), chi.URLParam(r, "reference"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
