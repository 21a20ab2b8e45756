package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterpiece-shawarma/storefront/internal/domain/auth"
	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
	"github.com/masterpiece-shawarma/storefront/internal/domain/checkout"
	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
	"github.com/masterpiece-shawarma/storefront/internal/domain/promo"
)

// --- Mock implementations ---

type mockMenu struct {
	items []menu.Item
	last  menu.Filter
}

func (m *mockMenu) List(_ context.Context, f menu.Filter) ([]menu.Item, error) {
	m.last = f
	return m.items, nil
}

func (m *mockMenu) Get(_ context.Context, id string) (*menu.Item, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, menu.ErrNotFound
}

func (m *mockMenu) Orderable(ctx context.Context, id string) (*menu.Item, error) {
	it, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !it.Available {
		return nil, menu.ErrUnavailable
	}
	return it, nil
}

type mockCheckout struct {
	mu       sync.Mutex
	forms    []checkout.Form
	methods  []order.PaymentMethod
	outcomes []payment.Outcome
	order    *order.Order
	session  *payment.Session
	err      error
}

func (m *mockCheckout) DeliveryAreas() []string { return []string{"Lekki Phase 1", "Ikoyi"} }

func (m *mockCheckout) PlaceOrder(_ context.Context, _ string, f checkout.Form, method order.PaymentMethod) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms = append(m.forms, f)
	m.methods = append(m.methods, method)
	return m.order, m.err
}

func (m *mockCheckout) StartCardPayment(_ context.Context, _ string, f checkout.Form) (*payment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms = append(m.forms, f)
	return m.session, m.err
}

func (m *mockCheckout) CancelCardPayment(context.Context, string, string) error {
	return m.err
}

func (m *mockCheckout) CompleteCardPayment(_ context.Context, _ string, f checkout.Form, o payment.Outcome) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms = append(m.forms, f)
	m.outcomes = append(m.outcomes, o)
	return m.order, m.err
}

type mockVerifier struct {
	result *payment.Result
	req    payment.VerifyRequest
}

func (m *mockVerifier) Verify(_ context.Context, req payment.VerifyRequest) *payment.Result {
	m.req = req
	return m.result
}

type mockOrders struct {
	byID    map[string]*order.Order
	list    []order.Order
	stats   order.Stats
	status  order.Status
	limit   int
	phone   string
	updated string
	err     error
}

func (m *mockOrders) Get(_ context.Context, id string) (*order.Order, error) {
	if o, ok := m.byID[id]; ok {
		return o, nil
	}
	return nil, order.ErrNotFound
}

func (m *mockOrders) GetByNumber(_ context.Context, number string) (*order.Order, error) {
	for _, o := range m.byID {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrders) ListByStatus(_ context.Context, s order.Status) ([]order.Order, error) {
	if !s.Valid() {
		return nil, order.ErrInvalidStatus
	}
	m.status = s
	return m.list, m.err
}

func (m *mockOrders) ListByPhone(_ context.Context, phone string) ([]order.Order, error) {
	m.phone = phone
	return m.list, m.err
}

func (m *mockOrders) ListRecent(_ context.Context, limit int) ([]order.Order, error) {
	m.limit = limit
	return m.list, m.err
}

func (m *mockOrders) ListToday(context.Context) ([]order.Order, error) { return m.list, m.err }

func (m *mockOrders) TodayStats(context.Context) (order.Stats, error) { return m.stats, m.err }

func (m *mockOrders) UpdateStatus(_ context.Context, id string, s order.Status) error {
	if !s.Valid() {
		return order.ErrInvalidStatus
	}
	if _, ok := m.byID[id]; !ok {
		return order.ErrNotFound
	}
	m.updated = string(s)
	return nil
}

func (m *mockOrders) UpdatePaymentStatus(_ context.Context, id string, s order.PaymentStatus) error {
	if !s.Valid() {
		return order.ErrInvalidPaymentStatus
	}
	if _, ok := m.byID[id]; !ok {
		return order.ErrNotFound
	}
	m.updated = string(s)
	return nil
}

type mockKeys map[string]*auth.APIKeyInfo

func (m mockKeys) Authenticate(_ context.Context, key string) (*auth.APIKeyInfo, error) {
	if info, ok := m[key]; ok {
		return info, nil
	}
	return nil, auth.ErrUnauthorized
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fixture struct {
	menu     *mockMenu
	carts    *cart.Store
	checkout *mockCheckout
	verifier *mockVerifier
	orders   *mockOrders
	router   http.Handler
}

func sampleOrder() *order.Order {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &order.Order{
		ID:          "0b6f3c1e-5d2a-4c7e-9f10-2a3b4c5d6e7f",
		OrderNumber: "MP12345678",
		Items: []cart.LineItem{
			{ItemID: "1", Name: "Chicken Shawarma Wrap", UnitPrice: d("1125"), Quantity: 2},
		},
		Customer:      order.Customer{Name: "Ada", Phone: "08012345678"},
		Type:          order.TypePickup,
		Subtotal:      d("2250"),
		Discount:      d("0"),
		DeliveryFee:   d("0"),
		Total:         d("2250"),
		PaymentMethod: order.PaymentCash,
		PaymentStatus: order.PaymentPending,
		Payment:       order.Payment{Method: order.PaymentCash, Status: "pending"},
		Status:        order.StatusPending,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func newFixture() *fixture {
	f := &fixture{
		menu: &mockMenu{items: []menu.Item{
			{ID: "1", Name: "Chicken Shawarma Wrap", Price: d("1125"), Category: "wraps", Popular: true, Available: true, Halal: true},
			{ID: "5", Name: "Loaded Fries", Price: d("650"), Category: "sides", Available: true, Halal: true},
			{ID: "6", Name: "Hummus and Pita", Price: d("500"), Category: "sides", Available: false, Halal: true},
		}},
		carts:    cart.NewStore(promo.MustEngine(promo.DefaultCodes), d("500"), time.Hour),
		checkout: &mockCheckout{},
		verifier: &mockVerifier{},
		orders:   &mockOrders{byID: map[string]*order.Order{}},
	}
	o := sampleOrder()
	f.orders.byID[o.ID] = o
	f.orders.list = []order.Order{*o}

	keys := mockKeys{
		"kitchen-read":  {ID: "k1", Name: "kitchen", Scopes: []string{auth.ScopeOrdersRead}},
		"kitchen-write": {ID: "k2", Name: "manager", Scopes: []string{auth.ScopeOrdersRead, auth.ScopeOrdersWrite}},
	}
	h := NewHandler(f.menu, f.carts, f.checkout, f.verifier, f.orders, keys)
	f.router = h.Router(Options{})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// --- Tests ---

func TestMenu(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/api/menu?category=sides&popular=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody[[]menuItemResponse](t, w)
	assert.Len(t, items, 3)
	assert.Equal(t, menu.Filter{Category: "sides", PopularOnly: true}, f.menu.last)
	assert.Equal(t, 1125.0, items[0].Price)

	w = f.do(t, http.MethodGet, "/api/menu?available=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/menu/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Loaded Fries", decodeBody[menuItemResponse](t, w).Name)

	w = f.do(t, http.MethodGet, "/api/menu/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, decodeBody[errorResponse](t, w).Code)
}

func TestCart_Flow(t *testing.T) {
	f := newFixture()
	base := "/api/cart/sess-1"

	for _, id := range []string{"1", "1", "5"} {
		w := f.do(t, http.MethodPost, base+"/items", `{"itemId":"`+id+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	c := decodeBody[cartResponse](t, f.do(t, http.MethodGet, base, ""))
	assert.Equal(t, 3, c.Units)
	assert.Equal(t, 2900.0, c.Subtotal)
	assert.Equal(t, 3400.0, c.Total)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 2250.0, c.Items[0].LineTotal)

	c = decodeBody[cartResponse](t, f.do(t, http.MethodDelete, base+"/items/1", ""))
	assert.Equal(t, 2, c.Units)
	assert.Equal(t, 1775.0, c.Subtotal)

	c = decodeBody[cartResponse](t, f.do(t, http.MethodPost, base+"/promo", `{"code":"welcome10"}`))
	assert.Equal(t, "WELCOME10", c.PromoCode)
	assert.Equal(t, 0.1, c.DiscountRate)
	assert.Equal(t, 177.5, c.Discount)
	assert.Equal(t, 2097.5, c.Total)

	w := f.do(t, http.MethodPost, base+"/promo", `{"code":"FREEFOOD"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_PROMO_CODE", decodeBody[errorResponse](t, w).Code)

	c = decodeBody[cartResponse](t, f.do(t, http.MethodDelete, base+"/items/5?all=true", ""))
	assert.Equal(t, 1, c.Units)
	assert.Equal(t, "WELCOME10", c.PromoCode, "failed promo keeps the previous one")

	c = decodeBody[cartResponse](t, f.do(t, http.MethodDelete, base, ""))
	assert.Equal(t, 0, c.Units)
	assert.Equal(t, 0.0, c.Total)
	assert.Empty(t, c.PromoCode)
}

func TestCart_AddRefusals(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "unavailable", body: `{"itemId":"6"}`, status: http.StatusUnprocessableEntity, code: "ITEM_UNAVAILABLE"},
		{name: "unknown", body: `{"itemId":"99"}`, status: http.StatusNotFound, code: codeNotFound},
		{name: "missing id", body: `{}`, status: http.StatusBadRequest, code: codeBadRequest},
		{name: "not json", body: `itemId=1`, status: http.StatusBadRequest, code: codeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			w := f.do(t, http.MethodPost, "/api/cart/s/items", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody[errorResponse](t, w).Code)
		})
	}
}

func TestCheckout_PlaceOrder(t *testing.T) {
	f := newFixture()
	f.checkout.order = sampleOrder()

	w := f.do(t, http.MethodPost, "/api/checkout/sess-1/orders",
		`{"name":"Ada","phone":"08012345678","orderType":"pickup","paymentMethod":"cash"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	o := decodeBody[orderResponse](t, w)
	assert.Equal(t, "MP12345678", o.OrderNumber)
	assert.Equal(t, 2250.0, o.Total)
	assert.Equal(t, "pending", o.PaymentStatus)

	require.Len(t, f.checkout.forms, 1)
	assert.Equal(t, order.TypePickup, f.checkout.forms[0].OrderType)
	assert.Equal(t, []order.PaymentMethod{order.PaymentCash}, f.checkout.methods)
}

func TestCheckout_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, e errorResponse)
	}{
		{
			name:   "validation",
			err:    &checkout.ValidationError{Fields: map[string]string{"phone": "Invalid phone number"}},
			status: http.StatusBadRequest,
			check: func(t *testing.T, e errorResponse) {
				assert.Equal(t, codeValidation, e.Code)
				assert.Equal(t, "Invalid phone number", e.Fields["phone"])
			},
		},
		{
			name:   "empty cart",
			err:    checkout.ErrEmptyCart,
			status: http.StatusUnprocessableEntity,
			check:  func(t *testing.T, e errorResponse) { assert.Equal(t, "EMPTY_CART", e.Code) },
		},
		{
			name:   "in progress",
			err:    checkout.ErrPaymentInProgress,
			status: http.StatusConflict,
			check:  func(t *testing.T, e errorResponse) { assert.Equal(t, "PAYMENT_IN_PROGRESS", e.Code) },
		},
		{
			name:   "amount mismatch",
			err:    &checkout.VerificationFailedError{Code: payment.CodeAmountMismatch, Message: "Payment amount mismatch"},
			status: http.StatusUnprocessableEntity,
			check:  func(t *testing.T, e errorResponse) { assert.Equal(t, "AMOUNT_MISMATCH", e.Code) },
		},
		{
			name:   "duplicate payment",
			err:    &checkout.VerificationFailedError{Code: payment.CodeDuplicatePayment, Message: "This payment reference has already been used"},
			status: http.StatusConflict,
			check:  func(t *testing.T, e errorResponse) { assert.Equal(t, "DUPLICATE_PAYMENT", e.Code) },
		},
		{
			name:   "charged but not saved",
			err:    &checkout.PaidOrderNotPersistedError{Reference: "MP-1-000001", Err: errors.New("connection reset")},
			status: http.StatusInternalServerError,
			check: func(t *testing.T, e errorResponse) {
				assert.Equal(t, "ORDER_NOT_SAVED", e.Code)
				assert.Equal(t, "MP-1-000001", e.Reference)
				assert.Contains(t, e.Message, "MP-1-000001")
				assert.NotContains(t, e.Message, "connection reset")
			},
		},
		{
			name:   "unexpected",
			err:    errors.New("pq: relation does not exist"),
			status: http.StatusInternalServerError,
			check: func(t *testing.T, e errorResponse) {
				assert.Equal(t, codeInternal, e.Code)
				assert.NotContains(t, e.Message, "relation")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.checkout.err = tt.err
			w := f.do(t, http.MethodPost, "/api/checkout/sess-1/payments/complete",
				`{"name":"Ada","phone":"0801","email":"ada@example.com","orderType":"pickup","reference":"MP-1-000001","transactionId":"4099"}`)
			assert.Equal(t, tt.status, w.Code)
			tt.check(t, decodeBody[errorResponse](t, w))
		})
	}
}

func TestCheckout_CardPayment(t *testing.T) {
	f := newFixture()
	f.checkout.session = &payment.Session{
		PublicKey: "pk_test", Email: "ada@example.com", Amount: 340000,
		Currency: "NGN", Reference: "MP-1-000001", Channels: payment.DefaultChannels,
	}

	w := f.do(t, http.MethodPost, "/api/checkout/sess-1/payments", `{"name":"Ada","phone":"0801","email":"ada@example.com","orderType":"delivery"}`)
	require.Equal(t, http.StatusOK, w.Code)
	s := decodeBody[payment.Session](t, w)
	assert.Equal(t, int64(340000), s.Amount)
	assert.Equal(t, "MP-1-000001", s.Reference)

	f.checkout.order = sampleOrder()
	w = f.do(t, http.MethodPost, "/api/checkout/sess-1/payments/complete",
		`{"name":"Ada","phone":"0801","email":"ada@example.com","orderType":"delivery","reference":"MP-1-000001","transactionId":"4099"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []payment.Outcome{{Reference: "MP-1-000001", TransactionID: "4099"}}, f.checkout.outcomes)

	w = f.do(t, http.MethodPost, "/api/checkout/sess-1/payments/MP-1-000001/cancel", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.checkout.err = checkout.ErrUnknownPayment
	w = f.do(t, http.MethodPost, "/api/checkout/sess-1/payments/nope/cancel", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.checkout.err = payment.ErrGatewayUnavailable
	w = f.do(t, http.MethodPost, "/api/checkout/sess-1/payments", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeliveryAreas(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/api/checkout/delivery-areas", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Lekki Phase 1", "Ikoyi"}, decodeBody[[]string](t, w))
}

func TestVerifyPayment(t *testing.T) {
	f := newFixture()
	f.verifier.result = &payment.Result{
		Verified: true,
		Code:     payment.CodeVerified,
		Data: &payment.VerifiedPayment{
			Reference: "abc123",
			Amount:    d("1500"),
			Status:    "success",
			PaidAt:    "2025-06-15T12:01:00.000Z",
			Customer:  payment.Customer{Email: "ada@example.com", ID: 181873746},
			Authorization: payment.Authorization{
				AuthorizationCode: "AUTH_x", Last4: "4081", CardType: "visa",
			},
		},
	}

	w := f.do(t, http.MethodPost, "/api/payments/verify", `{"reference":"abc123","amount":1500}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", f.verifier.req.Reference)
	assert.Equal(t, "1500", string(f.verifier.req.Amount))

	assert.JSONEq(t, `{
		"verified": true,
		"code": "VERIFIED",
		"data": {
			"reference": "abc123",
			"amount": 1500,
			"status": "success",
			"paidAt": "2025-06-15T12:01:00.000Z",
			"customer": {"email": "ada@example.com", "id": 181873746},
			"authorization": {"authorization_code": "AUTH_x", "last4": "4081", "card_type": "visa"}
		}
	}`, w.Body.String())
}

func TestVerifyPayment_Refused(t *testing.T) {
	f := newFixture()
	f.verifier.result = &payment.Result{Code: payment.CodeInvalidInput, Error: "Missing required fields: reference and amount"}

	w := f.do(t, http.MethodPost, "/api/payments/verify", `{"reference":"abc123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.verifier.req.Amount)
	assert.JSONEq(t, `{"verified":false,"code":"INVALID_INPUT","error":"Missing required fields: reference and amount"}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/payments/verify", `{"reference":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrders_Public(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/api/orders/0b6f3c1e-5d2a-4c7e-9f10-2a3b4c5d6e7f", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MP12345678", decodeBody[orderResponse](t, w).OrderNumber)

	w = f.do(t, http.MethodGet, "/api/orders/number/MP12345678", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders/number/MP00000000", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrders_Auth(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		key    string
		status int
	}{
		{name: "list without key", method: http.MethodGet, path: "/api/orders", status: http.StatusUnauthorized},
		{name: "list with bad key", method: http.MethodGet, path: "/api/orders", key: "nope", status: http.StatusUnauthorized},
		{name: "list with read key", method: http.MethodGet, path: "/api/orders", key: "kitchen-read", status: http.StatusOK},
		{name: "today with read key", method: http.MethodGet, path: "/api/orders/today", key: "kitchen-read", status: http.StatusOK},
		{name: "patch with read key", method: http.MethodPatch, path: "/api/orders/0b6f3c1e-5d2a-4c7e-9f10-2a3b4c5d6e7f/status", body: `{"status":"ready"}`, key: "kitchen-read", status: http.StatusForbidden},
		{name: "patch with write key", method: http.MethodPatch, path: "/api/orders/0b6f3c1e-5d2a-4c7e-9f10-2a3b4c5d6e7f/status", body: `{"status":"ready"}`, key: "kitchen-write", status: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			var headers []string
			if tt.key != "" {
				headers = []string{APIKeyHeader, tt.key}
			}
			w := f.do(t, tt.method, tt.path, tt.body, headers...)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestOrders_Ops(t *testing.T) {
	f := newFixture()
	read := []string{APIKeyHeader, "kitchen-read"}
	write := []string{APIKeyHeader, "kitchen-write"}

	w := f.do(t, http.MethodGet, "/api/orders?status=preparing", "", read...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusPreparing, f.orders.status)
	assert.Len(t, decodeBody[[]orderResponse](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/orders?status=lost", "", read...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders?phone=08012345678", "", read...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "08012345678", f.orders.phone)

	w = f.do(t, http.MethodGet, "/api/orders?status=ready&phone=0801", "", read...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/orders?limit=25", "", read...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, f.orders.limit)

	w = f.do(t, http.MethodGet, "/api/orders?limit=lots", "", read...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.orders.stats = order.Stats{
		TotalOrders: 3, TotalRevenue: d("7000"), PendingOrders: 1, CompletedOrders: 1, AverageOrderValue: d("2333.33"),
	}
	w = f.do(t, http.MethodGet, "/api/orders/stats/today", "", read...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalOrders":3,"totalRevenue":7000,"pendingOrders":1,"completedOrders":1,"averageOrderValue":2333.33}`, w.Body.String())

	w = f.do(t, http.MethodPatch, "/api/orders/0b6f3c1e-5d2a-4c7e-9f10-2a3b4c5d6e7f/payment-status", `{"status":"paid"}`, write...)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "paid", f.orders.updated)

	w = f.do(t, http.MethodPatch, "/api/orders/0b6f3c1e-5d2a-4c7e-9f10-2a3b4c5d6e7f/payment-status", `{"status":"refunded"}`, write...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, "/api/orders/ffffffff-5d2a-4c7e-9f10-2a3b4c5d6e7f/status", `{"status":"ready"}`, write...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, decodeBody[errorResponse](t, w).Code)
}
