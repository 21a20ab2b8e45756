// Package promo maps promo codes to discount rates.
package promo

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidPromoCode is returned when a code is not in the promo table.
var ErrInvalidPromoCode = errors.New("invalid promo code")

// Code is a promo code and the fraction of the subtotal it takes off.
type Code struct {
	Code string
	Rate decimal.Decimal
}

// DefaultCodes is the storefront's fixed promo table.
var DefaultCodes = []Code{
	{Code: "FIRST15", Rate: decimal.RequireFromString("0.15")},
	{Code: "FRIYAY", Rate: decimal.RequireFromString("0.20")},
	{Code: "WELCOME10", Rate: decimal.RequireFromString("0.10")},
	{Code: "LOYALTY", Rate: decimal.RequireFromString("0.25")},
}

// Engine validates promo codes against a static table.
type Engine struct {
	codes map[string]Code
}

// NewEngine builds an Engine from the given codes. Codes are matched
// case-insensitively; rates outside (0, 1] are rejected.
func NewEngine(codes []Code) (*Engine, error) {
	m := make(map[string]Code, len(codes))
	for _, c := range codes {
		key := Normalize(c.Code)
		if key == "" {
			return nil, errors.New("empty promo code")
		}
		if !c.Rate.IsPositive() || c.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, errors.Errorf("promo %s: rate %s out of range (0, 1]", key, c.Rate)
		}
		m[key] = Code{Code: key, Rate: c.Rate}
	}
	return &Engine{codes: m}, nil
}

// MustEngine is like NewEngine but panics on an invalid table.
func MustEngine(codes []Code) *Engine {
	e, err := NewEngine(codes)
	if err != nil {
		panic(err)
	}
	return e
}

// Normalize uppercases and trims a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply looks up a code and returns the matching promo.
// Returns ErrInvalidPromoCode when the code is unknown.
func (e *Engine) Apply(code string) (Code, error) {
	c, ok := e.codes[Normalize(code)]
	if !ok {
		return Code{}, ErrInvalidPromoCode
	}
	return c, nil
}

// Rate returns the discount rate for a previously applied code, or zero
// when the code is empty or no longer valid.
func (e *Engine) Rate(code string) decimal.Decimal {
	if code == "" {
		return decimal.Zero
	}
	c, err := e.Apply(code)
	if err != nil {
		return decimal.Zero
	}
	return c.Rate
}
