package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
)

// Type is how the customer receives the order.
type Type string

const (
	TypeDelivery Type = "delivery"
	TypePickup   Type = "pickup"
)

// Valid reports whether t is a known order type.
func (t Type) Valid() bool {
	return t == TypeDelivery || t == TypePickup
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// PaymentStatus tracks whether the order has been paid for.
type PaymentStatus string

const (
	// PaymentPending is a cash order, paid on delivery or pickup.
	PaymentPending PaymentStatus = "pending"
	// PaymentAwaiting is a transfer order waiting for the funds to land.
	PaymentAwaiting PaymentStatus = "awaiting"
	// PaymentPaid is a verified card payment.
	PaymentPaid PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentAwaiting, PaymentPaid:
		return true
	}
	return false
}

// Status is the kitchen workflow state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Customer holds the contact and delivery details captured at checkout.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Area    string `json:"area,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Payment records how an order was settled.
type Payment struct {
	Method        PaymentMethod `json:"method"`
	Status        string        `json:"status"`
	Reference     string        `json:"reference,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

// Order is a placed customer order.
type Order struct {
	ID            string
	OrderNumber   string
	Items         []cart.LineItem
	Customer      Customer
	Type          Type
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	PromoCode     string
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Payment       Payment
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Draft is an order before it is assigned an identity and persisted.
type Draft struct {
	Items         []cart.LineItem
	Customer      Customer
	Type          Type
	Totals        cart.Totals
	PromoCode     string
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Payment       Payment
}

// Stats summarises a set of orders.
type Stats struct {
	TotalOrders       int
	TotalRevenue      decimal.Decimal
	PendingOrders     int
	CompletedOrders   int
	AverageOrderValue decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts a new order. It returns ErrDuplicateOrderNumber or
	// ErrDuplicateReference when a unique constraint rejects the insert.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// ExistsByReference reports whether any order carries the payment reference.
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	ListByPhone(ctx context.Context, phone string) ([]Order, error)
	ListSince(ctx context.Context, since time.Time) ([]Order, error)
	ListRecent(ctx context.Context, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus, at time.Time) error
}
