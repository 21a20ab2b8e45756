package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
	"github.com/masterpiece-shawarma/storefront/internal/domain/checkout"
	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
)

// Money goes out as a JSON number in naira, which is what the storefront
// renders. Internally everything stays decimal.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

type menuItemResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image,omitempty"`
	Popular     bool    `json:"popular"`
	Available   bool    `json:"available"`
	Halal       bool    `json:"halal"`
}

func toMenuItem(it menu.Item) menuItemResponse {
	return menuItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       money(it.Price),
		Category:    it.Category,
		Image:       it.Image,
		Popular:     it.Popular,
		Available:   it.Available,
		Halal:       it.Halal,
	}
}

type lineItemResponse struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

func toLineItems(lines []cart.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(lines))
	for i, l := range lines {
		out[i] = lineItemResponse{
			ItemID:    l.ItemID,
			Name:      l.Name,
			UnitPrice: money(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: money(l.Total()),
		}
	}
	return out
}

type cartResponse struct {
	Session      string             `json:"session"`
	Items        []lineItemResponse `json:"items"`
	Units        int                `json:"units"`
	PromoCode    string             `json:"promoCode,omitempty"`
	Subtotal     float64            `json:"subtotal"`
	DiscountRate float64            `json:"discountRate"`
	Discount     float64            `json:"discount"`
	DeliveryFee  float64            `json:"deliveryFee"`
	Total        float64            `json:"total"`
}

func toCart(s cart.Snapshot) cartResponse {
	t := s.Totals.Rounded()
	return cartResponse{
		Session:      s.SessionID,
		Items:        toLineItems(s.Lines),
		Units:        s.Units,
		PromoCode:    s.PromoCode,
		Subtotal:     money(t.Subtotal),
		DiscountRate: t.DiscountRate.InexactFloat64(),
		Discount:     money(t.Discount),
		DeliveryFee:  money(t.DeliveryFee),
		Total:        money(t.Total),
	}
}

type checkoutRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Area          string `json:"area"`
	Notes         string `json:"notes"`
	OrderType     string `json:"orderType"`
	PaymentMethod string `json:"paymentMethod"`
}

func (c checkoutRequest) form() checkout.Form {
	return checkout.Form{
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		Area:      c.Area,
		Notes:     c.Notes,
		OrderType: order.Type(c.OrderType),
	}
}

type completePaymentRequest struct {
	checkoutRequest
	Reference     string `json:"reference"`
	TransactionID string `json:"transactionId"`
}

type paymentResponse struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	Reference     string     `json:"reference,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

type orderResponse struct {
	ID            string             `json:"id"`
	OrderNumber   string             `json:"orderNumber"`
	Items         []lineItemResponse `json:"items"`
	Customer      order.Customer     `json:"customer"`
	OrderType     string             `json:"orderType"`
	Subtotal      float64            `json:"subtotal"`
	Discount      float64            `json:"discount"`
	DeliveryFee   float64            `json:"deliveryFee"`
	Total         float64            `json:"total"`
	PromoCode     string             `json:"promoCode,omitempty"`
	PaymentMethod string             `json:"paymentMethod"`
	PaymentStatus string             `json:"paymentStatus"`
	Payment       paymentResponse    `json:"payment"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func toOrder(o *order.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Items:         toLineItems(o.Items),
		Customer:      o.Customer,
		OrderType:     string(o.Type),
		Subtotal:      money(o.Subtotal),
		Discount:      money(o.Discount),
		DeliveryFee:   money(o.DeliveryFee),
		Total:         money(o.Total),
		PromoCode:     o.PromoCode,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Payment: paymentResponse{
			Method:        string(o.Payment.Method),
			Status:        o.Payment.Status,
			Reference:     o.Payment.Reference,
			TransactionID: o.Payment.TransactionID,
			PaidAt:        o.Payment.PaidAt,
		},
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOrders(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrder(&orders[i])
	}
	return out
}

type statsResponse struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	PendingOrders     int     `json:"pendingOrders"`
	CompletedOrders   int     `json:"completedOrders"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

type verifyRequest struct {
	Reference string          `json:"reference"`
	Amount    json.RawMessage `json:"amount"`
}

type verifiedPaymentResponse struct {
	Reference     string                `json:"reference"`
	Amount        float64               `json:"amount"`
	Status        string                `json:"status"`
	PaidAt        string                `json:"paidAt"`
	Customer      payment.Customer      `json:"customer"`
	Authorization payment.Authorization `json:"authorization"`
}

type verifyResponse struct {
	Verified bool                     `json:"verified"`
	Data     *verifiedPaymentResponse `json:"data,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Code     string                   `json:"code"`
}

func toVerify(res *payment.Result) verifyResponse {
	out := verifyResponse{
		Verified: res.Verified,
		Error:    res.Error,
		Code:     string(res.Code),
	}
	if d := res.Data; d != nil {
		out.Data = &verifiedPaymentResponse{
			Reference:     d.Reference,
			Amount:        money(d.Amount),
			Status:        d.Status,
			PaidAt:        d.PaidAt,
			Customer:      d.Customer,
			Authorization: d.Authorization,
		}
	}
	return out
}
