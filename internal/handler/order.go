package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
)

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

// getOrderByNumber handles GET /api/orders/number/{number}, used by the
// confirmation page.
func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

// listOrders handles GET /api/orders. status and phone are exclusive
// filters; otherwise the most recent orders up to limit are returned.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		orders []order.Order
		err    error
	)
	switch status, phone := q.Get("status"), q.Get("phone"); {
	case status != "" && phone != "":
		badRequest(w, "filter by status or phone, not both")
		return
	case status != "":
		orders, err = h.orders.ListByStatus(r.Context(), order.Status(status))
	case phone != "":
		orders, err = h.orders.ListByPhone(r.Context(), phone)
	default:
		limit := 0
		if v := q.Get("limit"); v != "" {
			if limit, err = strconv.Atoi(v); err != nil {
				badRequest(w, "limit must be an integer")
				return
			}
		}
		orders, err = h.orders.ListRecent(r.Context(), limit)
	}
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

// listTodayOrders handles GET /api/orders/today.
func (h *Handler) listTodayOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListToday(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

// todayStats handles GET /api/orders/stats/today.
func (h *Handler) todayStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.orders.TodayStats(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalOrders:       s.TotalOrders,
		TotalRevenue:      money(s.TotalRevenue),
		PendingOrders:     s.PendingOrders,
		CompletedOrders:   s.CompletedOrders,
		AverageOrderValue: money(s.AverageOrderValue),
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

// updateOrderStatus handles PATCH /api/orders/{id}/status.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status)); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updatePaymentStatus handles PATCH /api/orders/{id}/payment-status, used
// when a transfer lands or cash is collected.
func (h *Handler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.orders.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), order.PaymentStatus(req.Status)); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
