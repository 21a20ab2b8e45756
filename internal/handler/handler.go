// Package handler exposes the storefront over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/masterpiece-shawarma/storefront/internal/domain/auth"
	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
	"github.com/masterpiece-shawarma/storefront/internal/domain/checkout"
	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
	"github.com/masterpiece-shawarma/storefront/pkg/httpmiddleware"
)

// Menu is the read side of the catalog.
type Menu interface {
	List(ctx context.Context, f menu.Filter) ([]menu.Item, error)
	Get(ctx context.Context, id string) (*menu.Item, error)
	Orderable(ctx context.Context, id string) (*menu.Item, error)
}

// Carts is the session cart store.
type Carts interface {
	Get(sessionID string) (cart.Snapshot, error)
	Add(sessionID string, e cart.Entry) (cart.Snapshot, error)
	RemoveOne(sessionID, itemID string) (cart.Snapshot, error)
	RemoveAll(sessionID, itemID string) (cart.Snapshot, error)
	Clear(sessionID string) (cart.Snapshot, error)
	ApplyPromo(sessionID, code string) (cart.Snapshot, error)
}

// Checkout places orders and runs card payments.
type Checkout interface {
	DeliveryAreas() []string
	PlaceOrder(ctx context.Context, sessionID string, f checkout.Form, method order.PaymentMethod) (*order.Order, error)
	StartCardPayment(ctx context.Context, sessionID string, f checkout.Form) (*payment.Session, error)
	CancelCardPayment(ctx context.Context, sessionID, reference string) error
	CompleteCardPayment(ctx context.Context, sessionID string, f checkout.Form, o payment.Outcome) (*order.Order, error)
}

// Verifier checks a payment reference with Paystack.
type Verifier interface {
	Verify(ctx context.Context, req payment.VerifyRequest) *payment.Result
}

// Orders is the order service as used by the public confirmation page and
// the kitchen dashboard.
type Orders interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	GetByNumber(ctx context.Context, number string) (*order.Order, error)
	ListByStatus(ctx context.Context, status order.Status) ([]order.Order, error)
	ListByPhone(ctx context.Context, phone string) ([]order.Order, error)
	ListRecent(ctx context.Context, limit int) ([]order.Order, error)
	ListToday(ctx context.Context) ([]order.Order, error)
	TodayStats(ctx context.Context) (order.Stats, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) error
	UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus) error
}

// Authenticator resolves an ops API key.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*auth.APIKeyInfo, error)
}

// Handler serves the /api routes.
type Handler struct {
	menu     Menu
	carts    Carts
	checkout Checkout
	verifier Verifier
	orders   Orders
	keys     Authenticator
}

// NewHandler creates a Handler.
func NewHandler(
	m Menu,
	carts Carts,
	co Checkout,
	verifier Verifier,
	orders Orders,
	keys Authenticator,
) *Handler {
	return &Handler{
		menu:     m,
		carts:    carts,
		checkout: co,
		verifier: verifier,
		orders:   orders,
		keys:     keys,
	}
}

// Options tunes route-level middleware.
type Options struct {
	// PaymentLimit, when set, guards the payment endpoints in addition to
	// any server-wide limit.
	PaymentLimit httpmiddleware.Middleware
	// Middlewares run inside the router, where the route pattern is known.
	Middlewares []httpmiddleware.Middleware
}

// Router returns a chi router with every /api route mounted.
func (h *Handler) Router(opts Options) chi.Router {
	r := chi.NewRouter()
	for _, m := range opts.Middlewares {
		r.Use(m)
	}
	limit := opts.PaymentLimit
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.listMenu)
		r.Get("/menu/{id}", h.getMenuItem)

		r.Route("/cart/{session}", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addToCart)
			r.Delete("/items/{itemId}", h.removeFromCart)
			r.Post("/promo", h.applyPromo)
		})

		r.Get("/checkout/delivery-areas", h.deliveryAreas)
		r.Route("/checkout/{session}", func(r chi.Router) {
			r.Post("/orders", h.placeOrder)
			r.With(limit).Post("/payments", h.startCardPayment)
			r.With(limit).Post("/payments/complete", h.completeCardPayment)
			r.Post("/payments/{reference}/cancel", h.cancelCardPayment)
		})

		r.With(limit).Post("/payments/verify", h.verifyPayment)

		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/number/{number}", h.getOrderByNumber)

		r.Group(func(r chi.Router) {
			r.Use(h.requireScope(auth.ScopeOrdersRead))
			r.Get("/orders", h.listOrders)
			r.Get("/orders/today", h.listTodayOrders)
			r.Get("/orders/stats/today", h.todayStats)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.requireScope(auth.ScopeOrdersWrite))
			r.Patch("/orders/{id}/status", h.updateOrderStatus)
			r.Patch("/orders/{id}/payment-status", h.updatePaymentStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})
	return r
}
