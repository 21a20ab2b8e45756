// Package checkout turns a session cart into an order. Cash and transfer
// orders are created directly; card orders are only created once the
// payment has been verified with Paystack.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
	"github.com/masterpiece-shawarma/storefront/pkg/idempotency"
)

// Checkout errors.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrPaymentInProgress  = errors.New("payment is already being processed")
	ErrUnknownPayment     = errors.New("no pending payment with this reference")
	ErrMissingReference   = errors.New("payment reference required")
	ErrUnsupportedPayment = errors.New("payment method not supported here")
)

// VerificationFailedError is returned when Paystack does not confirm the
// payment.
type VerificationFailedError struct {
	Code    payment.Code
	Message string
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("payment not verified: %s: %s", e.Code, e.Message)
}

// PaidOrderNotPersistedError means the customer was charged but the order
// could not be saved. Reference is the key for manual recovery.
type PaidOrderNotPersistedError struct {
	Reference string
	Err       error
}

func (e *PaidOrderNotPersistedError) Error() string {
	return fmt.Sprintf("payment %s verified but order not saved: %v", e.Reference, e.Err)
}

func (e *PaidOrderNotPersistedError) Unwrap() error { return e.Err }

// UserMessage is safe to show to the customer.
func (e *PaidOrderNotPersistedError) UserMessage() string {
	return fmt.Sprintf(
		"Your payment was received but we could not save your order. Please contact support with payment reference %s.",
		e.Reference,
	)
}

// Carts is the session cart store.
type Carts interface {
	Get(sessionID string) (cart.Snapshot, error)
	Clear(sessionID string) (cart.Snapshot, error)
}

// Orders creates orders.
type Orders interface {
	Create(ctx context.Context, d order.Draft) (*order.Order, error)
}

// Gateway builds Paystack widget sessions.
type Gateway interface {
	InitializePayment(req payment.Request) (*payment.Session, error)
}

// Verifier confirms a payment with Paystack.
type Verifier interface {
	Verify(ctx context.Context, req payment.VerifyRequest) *payment.Result
}

// Config configures a Service.
type Config struct {
	DeliveryAreas []string
	// AttemptTTL is how long an unfinished card payment is remembered.
	AttemptTTL time.Duration
}

type pendingAttempt struct {
	attempt *payment.Attempt
	session string
	started time.Time
}

// Service runs checkouts.
type Service struct {
	carts    Carts
	orders   Orders
	gateway  Gateway
	verifier Verifier
	claims   idempotency.Claimer
	areas    map[string]struct{}
	areaList []string

	attemptTTL time.Duration
	now        func() time.Time

	mu       sync.Mutex
	attempts map[string]*pendingAttempt
}

// NewService creates a checkout Service.
func NewService(
	carts Carts,
	orders Orders,
	gateway Gateway,
	verifier Verifier,
	claims idempotency.Claimer,
	cfg Config,
) *Service {
	areas := cfg.DeliveryAreas
	if len(areas) == 0 {
		areas = DefaultDeliveryAreas
	}
	set := make(map[string]struct{}, len(areas))
	for _, a := range areas {
		set[a] = struct{}{}
	}
	ttl := cfg.AttemptTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		carts:      carts,
		orders:     orders,
		gateway:    gateway,
		verifier:   verifier,
		claims:     claims,
		areas:      set,
		areaList:   areas,
		attemptTTL: ttl,
		now:        time.Now,
		attempts:   make(map[string]*pendingAttempt),
	}
}

// DeliveryAreas returns the configured delivery areas in display order.
func (s *Service) DeliveryAreas() []string {
	out := make([]string, len(s.areaList))
	copy(out, s.areaList)
	return out
}

// quote prices the session cart for the order type. Pickup orders carry no
// delivery fee.
func (s *Service) quote(sessionID string, t order.Type) (cart.Snapshot, cart.Totals, error) {
	snap, err := s.carts.Get(sessionID)
	if err != nil {
		return cart.Snapshot{}, cart.Totals{}, err
	}
	if snap.Units == 0 {
		return cart.Snapshot{}, cart.Totals{}, ErrEmptyCart
	}
	totals := snap.Totals
	if t == order.TypePickup {
		totals = totals.WithoutDelivery()
	}
	return snap, totals.Rounded(), nil
}

// PlaceOrder creates a cash or transfer order from the session cart and
// clears the cart.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, f Form, method order.PaymentMethod) (*order.Order, error) {
	if method == order.PaymentCard {
		return nil, ErrUnsupportedPayment
	}
	f = f.trimmed()
	if err := s.validate(f, method); err != nil {
		return nil, err
	}
	snap, totals, err := s.quote(sessionID, f.OrderType)
	if err != nil {
		return nil, err
	}

	status := order.PaymentAwaiting
	if method == order.PaymentCash {
		status = order.PaymentPending
	}

	o, err := s.orders.Create(ctx, order.Draft{
		Items:         snap.Lines,
		Customer:      f.customer(),
		Type:          f.OrderType,
		Totals:        totals,
		PromoCode:     snap.PromoCode,
		PaymentMethod: method,
		PaymentStatus: status,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	s.clearCart(ctx, sessionID)

	zctx.From(ctx).Info("Order placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_method", string(method)),
		zap.Stringer("total", o.Total),
	)
	return o, nil
}

// StartCardPayment prices the cart and returns a Paystack widget session
// with a fresh reference. No order is created yet.
func (s *Service) StartCardPayment(ctx context.Context, sessionID string, f Form) (*payment.Session, error) {
	f = f.trimmed()
	if err := s.validate(f, order.PaymentCard); err != nil {
		return nil, err
	}
	_, totals, err := s.quote(sessionID, f.OrderType)
	if err != nil {
		return nil, err
	}

	ps, err := s.gateway.InitializePayment(payment.Request{
		Email:  f.Email,
		Amount: totals.Total,
		Metadata: map[string]string{
			"customerName":  f.Name,
			"customerPhone": f.Phone,
			"orderType":     string(f.OrderType),
			"session":       sessionID,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "initialize payment")
	}

	s.track(ctx, sessionID, ps)
	return ps, nil
}

func (s *Service) track(ctx context.Context, sessionID string, ps *payment.Session) {
	lg := zctx.From(ctx).With(zap.String("reference", ps.Reference))
	a := payment.NewAttempt(ps,
		func(o payment.Outcome) {
			lg.Info("Payment reported by widget", zap.String("transaction_id", o.TransactionID))
		},
		func() {
			lg.Info("Payment window closed")
		},
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for ref, p := range s.attempts {
		if now.Sub(p.started) > s.attemptTTL {
			delete(s.attempts, ref)
		}
	}
	s.attempts[ps.Reference] = &pendingAttempt{attempt: a, session: sessionID, started: now}
}

// take removes and returns the pending attempt for reference, if any.
func (s *Service) take(sessionID, reference string) *payment.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.attempts[reference]
	if !ok || p.session != sessionID {
		return nil
	}
	delete(s.attempts, reference)
	return p.attempt
}

// CancelCardPayment records that the customer closed the widget. It never
// touches orders.
func (s *Service) CancelCardPayment(_ context.Context, sessionID, reference string) error {
	a := s.take(sessionID, reference)
	if a == nil {
		return ErrUnknownPayment
	}
	a.Close()
	return nil
}

// CompleteCardPayment verifies a widget-reported payment and, only if
// Paystack confirms it for the cart total, creates a paid order.
//
// The reference is claimed for the duration of the call; a concurrent or
// repeated completion gets ErrPaymentInProgress. The claim is released when
// verification or persistence fails so the customer can retry, and kept
// once the order exists.
func (s *Service) CompleteCardPayment(ctx context.Context, sessionID string, f Form, outcome payment.Outcome) (*order.Order, error) {
	f = f.trimmed()
	if outcome.Reference == "" {
		return nil, ErrMissingReference
	}
	if err := s.validate(f, order.PaymentCard); err != nil {
		return nil, err
	}
	snap, totals, err := s.quote(sessionID, f.OrderType)
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx).With(zap.String("reference", outcome.Reference))

	claimed, err := s.claims.Claim(ctx, outcome.Reference)
	if err != nil {
		return nil, errors.Wrap(err, "claim reference")
	}
	if !claimed {
		return nil, ErrPaymentInProgress
	}
	release := func() {
		if err := s.claims.Release(context.WithoutCancel(ctx), outcome.Reference); err != nil {
			lg.Warn("Release claim", zap.Error(err))
		}
	}

	if a := s.take(sessionID, outcome.Reference); a != nil {
		a.Succeed(outcome)
	}

	res := s.verifier.Verify(ctx, payment.VerifyRequest{
		Reference: outcome.Reference,
		Amount:    []byte(totals.Total.String()),
	})
	if !res.Verified {
		release()
		return nil, &VerificationFailedError{Code: res.Code, Message: res.Error}
	}

	paidAt := s.now().UTC()
	if t, err := time.Parse(time.RFC3339, res.Data.PaidAt); err == nil {
		paidAt = t.UTC()
	}

	o, err := s.orders.Create(ctx, order.Draft{
		Items:         snap.Lines,
		Customer:      f.customer(),
		Type:          f.OrderType,
		Totals:        totals,
		PromoCode:     snap.PromoCode,
		PaymentMethod: order.PaymentCard,
		PaymentStatus: order.PaymentPaid,
		Payment: order.Payment{
			Method:        order.PaymentCard,
			Status:        "success",
			Reference:     outcome.Reference,
			TransactionID: outcome.TransactionID,
			PaidAt:        &paidAt,
		},
	})
	switch {
	case errors.Is(err, order.ErrDuplicateReference):
		return nil, &VerificationFailedError{
			Code:    payment.CodeDuplicatePayment,
			Message: "This payment reference has already been used",
		}
	case err != nil:
		lg.Error("Paid order not persisted", zap.Error(err))
		release()
		return nil, &PaidOrderNotPersistedError{Reference: outcome.Reference, Err: err}
	}
	s.clearCart(ctx, sessionID)

	lg.Info("Card order placed",
		zap.String("order_number", o.OrderNumber),
		zap.Stringer("total", o.Total),
	)
	return o, nil
}

func (s *Service) clearCart(ctx context.Context, sessionID string) {
	if _, err := s.carts.Clear(sessionID); err != nil {
		zctx.From(ctx).Warn("Clear cart", zap.String("session", sessionID), zap.Error(err))
	}
}
