package checkout

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
)

var phonePattern = regexp.MustCompile(`^[\d\s+()-]+$`)

// DefaultDeliveryAreas are the neighbourhoods the kitchen delivers to.
var DefaultDeliveryAreas = []string{
	"Lekki Phase 1",
	"Lekki Phase 2",
	"Victoria Island",
	"Ikoyi",
	"Ajah",
	"Oniru",
	"Eti-Osa",
}

// Form is the customer's checkout input.
type Form struct {
	Name      string
	Phone     string
	Email     string
	Address   string
	Area      string
	Notes     string
	OrderType order.Type
}

func (f Form) trimmed() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	f.Area = strings.TrimSpace(f.Area)
	f.Notes = strings.TrimSpace(f.Notes)
	return f
}

func (f Form) customer() order.Customer {
	c := order.Customer{
		Name:  f.Name,
		Phone: f.Phone,
		Email: f.Email,
		Notes: f.Notes,
	}
	if f.OrderType == order.TypeDelivery {
		c.Address = f.Address
		c.Area = f.Area
	}
	return c
}

// ValidationError lists the form fields that failed validation, keyed by
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("invalid checkout form: ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// validate checks the form for the given payment method. Card payments
// need an email for the Paystack receipt.
func (s *Service) validate(f Form, method order.PaymentMethod) error {
	fields := make(map[string]string)

	if f.Name == "" {
		fields["name"] = "Name is required"
	}
	switch {
	case f.Phone == "":
		fields["phone"] = "Phone number is required"
	case !phonePattern.MatchString(f.Phone):
		fields["phone"] = "Invalid phone number"
	}

	switch f.OrderType {
	case order.TypeDelivery:
		if f.Address == "" {
			fields["address"] = "Delivery address is required"
		}
		if _, ok := s.areas[f.Area]; !ok {
			fields["area"] = "Please select your area"
		}
	case order.TypePickup:
	default:
		fields["orderType"] = "Choose delivery or pickup"
	}

	if method == order.PaymentCard || f.Email != "" {
		if f.Email == "" {
			fields["email"] = "Email is required for card payment"
		} else if _, err := mail.ParseAddress(f.Email); err != nil {
			fields["email"] = "Invalid email address"
		}
	}

	if !method.Valid() {
		fields["paymentMethod"] = "Choose a payment method"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Validate checks the form without touching the cart.
func (s *Service) Validate(f Form, method order.PaymentMethod) error {
	return s.validate(f.trimmed(), method)
}
