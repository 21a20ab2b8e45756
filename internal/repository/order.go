package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
)

const (
	orderNumberConstraint      = "orders_order_number_key"
	paymentReferenceConstraint = "orders_payment_reference_key"

	orderColumns = `id::text, order_number, items, customer, order_type,
		subtotal, discount, delivery_fee, total, promo_code,
		payment_method, payment_status, payment, status, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (
		id, order_number, items, customer, customer_phone, order_type,
		subtotal, discount, delivery_fee, total, promo_code,
		payment_method, payment_status, payment, payment_reference,
		status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	getOrderSQL         = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderByNumberSQL = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	existsByReferenceSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE payment_reference = $1)`

	listByStatusSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 ORDER BY created_at DESC`
	listByPhoneSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE customer_phone = $1 ORDER BY created_at DESC`
	listSinceSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE created_at >= $1 ORDER BY created_at DESC`
	listRecentSQL = `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC LIMIT $1`

	updateStatusSQL        = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	updatePaymentStatusSQL = `UPDATE orders SET payment_status = $2, updated_at = $3 WHERE id = $1`

	listReferencesSQL = `SELECT payment_reference FROM orders WHERE payment_reference IS NOT NULL`
	referencesInSQL   = `SELECT payment_reference FROM orders WHERE payment_reference = ANY($1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// order document is stored as JSONB columns with the payment reference and
// order number lifted into uniquely indexed columns.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Unique violations are reported as
// order.ErrDuplicateOrderNumber or order.ErrDuplicateReference.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return errors.Wrap(err, "marshal customer")
	}
	paymentJSON, err := json.Marshal(o.Payment)
	if err != nil {
		return errors.Wrap(err, "marshal payment")
	}

	var reference *string
	if o.Payment.Reference != "" {
		reference = &o.Payment.Reference
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.OrderNumber, itemsJSON, customerJSON, o.Customer.Phone, string(o.Type),
		o.Subtotal, o.Discount, o.DeliveryFee, o.Total, o.PromoCode,
		string(o.PaymentMethod), string(o.PaymentStatus), paymentJSON, reference,
		string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	switch uniqueConstraint(err) {
	case "":
	case orderNumberConstraint:
		return errors.Wrapf(order.ErrDuplicateOrderNumber, "order number %q", o.OrderNumber)
	case paymentReferenceConstraint:
		return errors.Wrapf(order.ErrDuplicateReference, "reference %q", o.Payment.Reference)
	}
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// Get returns an order by ID.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderSQL, id)
}

// GetByNumber returns an order by its human-readable number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByNumberSQL, number)
}

func (r *OrderRepository) getOne(ctx context.Context, query, arg string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", arg)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", arg)
	}
	return &o, nil
}

// ExistsByReference reports whether any order carries the payment reference.
func (r *OrderRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, existsByReferenceSQL, reference).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check payment reference")
	}
	return exists, nil
}

// ListByStatus returns orders in a workflow state, newest first.
func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	return r.list(ctx, listByStatusSQL, string(status))
}

// ListByPhone returns a customer's orders, newest first.
func (r *OrderRepository) ListByPhone(ctx context.Context, phone string) ([]order.Order, error) {
	return r.list(ctx, listByPhoneSQL, phone)
}

// ListSince returns orders created at or after since, newest first.
func (r *OrderRepository) ListSince(ctx context.Context, since time.Time) ([]order.Order, error) {
	return r.list(ctx, listSinceSQL, since)
}

// ListRecent returns the newest orders.
func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]order.Order, error) {
	return r.list(ctx, listRecentSQL, limit)
}

func (r *OrderRepository) list(ctx context.Context, query string, arg any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	return orders, nil
}

// UpdateStatus sets the workflow state of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, at time.Time) error {
	return r.update(ctx, updateStatusSQL, id, string(status), at)
}

// UpdatePaymentStatus sets the payment status of an order.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus, at time.Time) error {
	return r.update(ctx, updatePaymentStatusSQL, id, string(status), at)
}

func (r *OrderRepository) update(ctx context.Context, query, id, value string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, query, id, value, at)
	if err != nil {
		return errors.Wrapf(err, "update order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// EachReference calls fn with every payment reference on file.
func (r *OrderRepository) EachReference(ctx context.Context, fn func(ref string) error) error {
	rows, err := r.pool.Query(ctx, listReferencesSQL)
	if err != nil {
		return errors.Wrap(err, "list references")
	}
	defer rows.Close()

	var ref string
	_, err = pgx.ForEachRow(rows, []any{&ref}, func() error {
		return fn(ref)
	})
	if err != nil {
		return errors.Wrap(err, "scan references")
	}
	return nil
}

// ReferencesIn returns which of refs are present on some order.
func (r *OrderRepository) ReferencesIn(ctx context.Context, refs []string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, referencesInSQL, refs)
	if err != nil {
		return nil, errors.Wrap(err, "query references")
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "scan references")
	}
	out := make(map[string]bool, len(found))
	for _, ref := range found {
		out[ref] = true
	}
	return out, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                            order.Order
		items, customer, payment     []byte
		orderType, method, payStatus string
		status                       string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &items, &customer, &orderType,
		&o.Subtotal, &o.Discount, &o.DeliveryFee, &o.Total, &o.PromoCode,
		&method, &payStatus, &payment, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, errors.Wrap(err, "unmarshal items")
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return o, errors.Wrap(err, "unmarshal customer")
	}
	if err := json.Unmarshal(payment, &o.Payment); err != nil {
		return o, errors.Wrap(err, "unmarshal payment")
	}
	o.Type = order.Type(orderType)
	o.PaymentMethod = order.PaymentMethod(method)
	o.PaymentStatus = order.PaymentStatus(payStatus)
	o.Status = order.Status(status)
	return o, nil
}
