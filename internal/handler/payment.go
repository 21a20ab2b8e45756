package handler

import (
	"net/http"

	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
)

// verifyPayment handles POST /api/payments/verify. The outcome, verified
// or not, is always a 200 carrying the result body; only a body that is
// not JSON at all is a 400.
func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	res := h.verifier.Verify(r.Context(), payment.VerifyRequest{
		Reference: req.Reference,
		Amount:    req.Amount,
	})
	writeJSON(w, http.StatusOK, toVerify(res))
}
