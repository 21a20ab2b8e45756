package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order creation and lookup.
var (
	ErrNotFound             = errors.New("order not found")
	ErrEmptyItems           = errors.New("items required")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	ErrDuplicateReference   = errors.New("payment reference already used")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidDraft         = errors.New("invalid order draft")
)

const (
	// DefaultListLimit is the page size used by ListRecent when none is given.
	DefaultListLimit = 100
	// MaxListLimit caps ListRecent.
	MaxListLimit = 500

	createAttempts = 3
)

// Service encapsulates order persistence rules: identity and number
// assignment, duplicate reference prevention and reporting.
type Service struct {
	orders  Repository
	numbers *NumberGenerator
	loc     *time.Location
	now     func() time.Time
}

// NewService creates an order Service. loc is the store's local time zone,
// used to decide where "today" begins.
func NewService(orders Repository, numbers *NumberGenerator, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orders:  orders,
		numbers: numbers,
		loc:     loc,
		now:     time.Now,
	}
}

func validateDraft(d Draft) error {
	if len(d.Items) == 0 {
		return ErrEmptyItems
	}
	for _, it := range d.Items {
		if it.Quantity <= 0 {
			return errors.Wrapf(ErrInvalidDraft, "item %s: quantity %d", it.ItemID, it.Quantity)
		}
	}
	if !d.Type.Valid() {
		return errors.Wrapf(ErrInvalidDraft, "order type %q", d.Type)
	}
	if !d.PaymentMethod.Valid() {
		return errors.Wrapf(ErrInvalidDraft, "payment method %q", d.PaymentMethod)
	}
	if !d.PaymentStatus.Valid() {
		return errors.Wrapf(ErrInvalidDraft, "payment status %q", d.PaymentStatus)
	}
	return nil
}

// Create persists a draft as a new order. It assigns a UUID identity and an
// order number; a colliding number is regenerated up to three times. When
// the draft carries a payment reference already used by another order,
// Create returns ErrDuplicateReference.
func (s *Service) Create(ctx context.Context, d Draft) (*Order, error) {
	if err := validateDraft(d); err != nil {
		return nil, err
	}

	ref := d.Payment.Reference
	if ref != "" {
		exists, err := s.orders.ExistsByReference(ctx, ref)
		if err != nil {
			return nil, errors.Wrap(err, "check payment reference")
		}
		if exists {
			return nil, ErrDuplicateReference
		}
	}

	totals := d.Totals.Rounded()
	payment := d.Payment
	if payment.Method == "" {
		payment.Method = d.PaymentMethod
	}
	if payment.Status == "" {
		payment.Status = string(d.PaymentStatus)
	}

	now := s.now().UTC()
	o := &Order{
		ID:            uuid.New().String(),
		Items:         d.Items,
		Customer:      d.Customer,
		Type:          d.Type,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		DeliveryFee:   totals.DeliveryFee,
		Total:         totals.Total,
		PromoCode:     d.PromoCode,
		PaymentMethod: d.PaymentMethod,
		PaymentStatus: d.PaymentStatus,
		Payment:       payment,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 1; ; attempt++ {
		o.OrderNumber = s.numbers.Next()
		err := s.orders.Create(ctx, o)
		switch {
		case err == nil:
			return o, nil
		case errors.Is(err, ErrDuplicateOrderNumber):
			if attempt >= createAttempts {
				return nil, err
			}
		case errors.Is(err, ErrDuplicateReference):
			return nil, ErrDuplicateReference
		default:
			return nil, errors.Wrap(err, "create order")
		}
	}
}

// Get returns the order with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.orders.Get(ctx, id)
}

// GetByNumber returns the order with the given order number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

// ListByStatus returns orders in the given workflow state.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.orders.ListByStatus(ctx, status)
}

// ListByPhone returns every order placed with the given phone number.
func (s *Service) ListByPhone(ctx context.Context, phone string) ([]Order, error) {
	return s.orders.ListByPhone(ctx, phone)
}

// ListRecent returns the newest orders. A non-positive limit means
// DefaultListLimit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	return s.orders.ListRecent(ctx, limit)
}

// StartOfDay returns local midnight of the current day in the store's
// time zone.
func (s *Service) StartOfDay() time.Time {
	now := s.now().In(s.loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// ListToday returns the orders created since local midnight.
func (s *Service) ListToday(ctx context.Context) ([]Order, error) {
	return s.orders.ListSince(ctx, s.StartOfDay())
}

// TodayStats summarises today's orders.
func (s *Service) TodayStats(ctx context.Context) (Stats, error) {
	orders, err := s.ListToday(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "list today")
	}
	return Summarize(orders), nil
}

// UpdateStatus moves an order to a new workflow state.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.orders.UpdateStatus(ctx, id, status, s.now().UTC())
}

// UpdatePaymentStatus records a change in how far the order is paid.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	if !status.Valid() {
		return ErrInvalidPaymentStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.orders.UpdatePaymentStatus(ctx, id, status, s.now().UTC())
}

// Summarize folds a set of orders into Stats. Completed means delivered.
func Summarize(orders []Order) Stats {
	st := Stats{
		TotalOrders:       len(orders),
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for _, o := range orders {
		st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		switch o.Status {
		case StatusPending:
			st.PendingOrders++
		case StatusDelivered:
			st.CompletedOrders++
		}
	}
	if st.TotalOrders > 0 {
		st.AverageOrderValue = st.TotalRevenue.Div(decimal.NewFromInt(int64(st.TotalOrders))).Round(2)
	}
	return st
}
