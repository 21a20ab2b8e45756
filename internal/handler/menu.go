package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
)

// listMenu handles GET /api/menu?category=&popular=&available=.
func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := menu.Filter{Category: q.Get("category")}
	for name, dst := range map[string]*bool{"popular": &f.PopularOnly, "available": &f.AvailableOnly} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, name+" must be true or false")
			return
		}
		*dst = b
	}

	items, err := h.menu.List(r.Context(), f)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	out := make([]menuItemResponse, len(items))
	for i, it := range items {
		out[i] = toMenuItem(it)
	}
	writeJSON(w, http.StatusOK, out)
}

// getMenuItem handles GET /api/menu/{id}.
func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.menu.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItem(*it))
}
