package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
)

type addItemRequest struct {
	ItemID string `json:"itemId"`
}

type promoRequest struct {
	Code string `json:"code"`
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, s cart.Snapshot, err error) {
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(s))
}

// getCart handles GET /api/cart/{session}.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.carts.Get(chi.URLParam(r, "session"))
	h.respondCart(w, r, s, err)
}

// clearCart handles DELETE /api/cart/{session}.
func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.carts.Clear(chi.URLParam(r, "session"))
	h.respondCart(w, r, s, err)
}

// addToCart handles POST /api/cart/{session}/items. Name and price come
// from the catalog, never from the client.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.ItemID == "" {
		badRequest(w, "itemId is required")
		return
	}
	it, err := h.menu.Orderable(r.Context(), req.ItemID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	s, err := h.carts.Add(chi.URLParam(r, "session"), cart.Entry{
		ItemID:    it.ID,
		Name:      it.Name,
		UnitPrice: it.Price,
	})
	h.respondCart(w, r, s, err)
}

// removeFromCart handles DELETE /api/cart/{session}/items/{itemId}. One unit
// is removed unless ?all=true.
func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	session, itemID := chi.URLParam(r, "session"), chi.URLParam(r, "itemId")
	all := false
	if v := r.URL.Query().Get("all"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "all must be true or false")
			return
		}
		all = b
	}

	var (
		s   cart.Snapshot
		err error
	)
	if all {
		s, err = h.carts.RemoveAll(session, itemID)
	} else {
		s, err = h.carts.RemoveOne(session, itemID)
	}
	h.respondCart(w, r, s, err)
}

// applyPromo handles POST /api/cart/{session}/promo.
func (h *Handler) applyPromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	s, err := h.carts.ApplyPromo(chi.URLParam(r, "session"), req.Code)
	h.respondCart(w, r, s, err)
}
