package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/masterpiece-shawarma/storefront/internal/domain/auth"
	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
	"github.com/masterpiece-shawarma/storefront/internal/domain/checkout"
	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
	"github.com/masterpiece-shawarma/storefront/internal/domain/promo"
)

const maxBodyBytes = 64 << 10

const (
	codeValidation   = "VALIDATION_ERROR"
	codeBadRequest   = "BAD_REQUEST"
	codeNotFound     = "NOT_FOUND"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeInternal     = "INTERNAL"
)

type errorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Reference string            `json:"reference,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// decode reads a JSON body of at most maxBodyBytes into v. An empty body
// leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, codeBadRequest, message)
}

// writeDomainError maps domain errors to HTTP responses. Anything it does
// not recognize is logged and answered with a generic 500.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		validation *checkout.ValidationError
		refused    *checkout.VerificationFailedError
		unsaved    *checkout.PaidOrderNotPersistedError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    codeValidation,
			Message: "Please check the highlighted fields",
			Fields:  validation.Fields,
		})
	case errors.As(err, &refused):
		status := http.StatusUnprocessableEntity
		if refused.Code == payment.CodeDuplicatePayment {
			status = http.StatusConflict
		}
		writeError(w, status, string(refused.Code), refused.Message)
	case errors.As(err, &unsaved):
		zctx.From(ctx).Error("Charged customer without order",
			zap.String("reference", unsaved.Reference),
			zap.Error(unsaved.Err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:      "ORDER_NOT_SAVED",
			Message:   unsaved.UserMessage(),
			Reference: unsaved.Reference,
		})

	case errors.Is(err, cart.ErrEmptySession),
		errors.Is(err, checkout.ErrMissingReference),
		errors.Is(err, checkout.ErrUnsupportedPayment),
		errors.Is(err, payment.ErrInvalidEmail),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidPaymentStatus):
		badRequest(w, err.Error())

	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid or missing API key")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, "API key lacks the required scope")

	case errors.Is(err, menu.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Menu item not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Order not found")
	case errors.Is(err, checkout.ErrUnknownPayment):
		writeError(w, http.StatusNotFound, codeNotFound, "No pending payment with this reference")

	case errors.Is(err, checkout.ErrPaymentInProgress):
		writeError(w, http.StatusConflict, "PAYMENT_IN_PROGRESS", "This payment is already being processed")

	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "Your cart is empty")
	case errors.Is(err, menu.ErrUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "ITEM_UNAVAILABLE", "This item is not available right now")
	case errors.Is(err, promo.ErrInvalidPromoCode):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_PROMO_CODE", "Invalid promo code")

	case errors.Is(err, payment.ErrGatewayUnavailable):
		writeError(w, http.StatusServiceUnavailable, "PAYMENTS_UNAVAILABLE", "Card payments are not available right now")

	default:
		zctx.From(ctx).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "Something went wrong, please try again")
	}
}
