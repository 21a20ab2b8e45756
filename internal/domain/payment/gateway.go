// Package payment hands checkouts off to the hosted Paystack widget and
// verifies the outcome server-side before an order is marked paid.
package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Gateway errors.
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidEmail       = errors.New("email required for card payment")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// DefaultReferencePrefix prefixes generated payment references.
const DefaultReferencePrefix = "MP"

// DefaultChannels are the Paystack channels offered to the customer.
var DefaultChannels = []string{"card", "bank", "ussd", "qr", "mobile_money", "bank_transfer"}

// GatewayConfig configures the hosted widget handoff.
type GatewayConfig struct {
	PublicKey       string
	Currency        string
	Channels        []string
	ReferencePrefix string
}

// Request describes a payment to start.
type Request struct {
	Email     string
	Amount    decimal.Decimal // major units
	Reference string
	Metadata  map[string]string
}

// Session is everything the storefront needs to open the Paystack widget.
type Session struct {
	PublicKey string            `json:"publicKey"`
	Email     string            `json:"email"`
	Amount    int64             `json:"amount"` // minor units
	Currency  string            `json:"currency"`
	Reference string            `json:"reference"`
	Channels  []string          `json:"channels"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Gateway builds payment sessions for the hosted Paystack widget.
type Gateway struct {
	cfg GatewayConfig
}

// NewGateway creates a Gateway. Empty currency, channels and prefix fall
// back to NGN, DefaultChannels and DefaultReferencePrefix.
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = DefaultChannels
	}
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = DefaultReferencePrefix
	}
	return &Gateway{cfg: cfg}
}

// Available reports whether the gateway can hand a payment off.
func (g *Gateway) Available() bool {
	return g.cfg.PublicKey != ""
}

// InitializePayment builds a widget session for req. It fails with
// ErrGatewayUnavailable before doing anything else when no public key is
// configured. An empty reference is replaced with a generated one.
func (g *Gateway) InitializePayment(req Request) (*Session, error) {
	if !g.Available() {
		return nil, ErrGatewayUnavailable
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	ref := req.Reference
	if ref == "" {
		var err error
		if ref, err = GenerateReference(g.cfg.ReferencePrefix); err != nil {
			return nil, errors.Wrap(err, "generate reference")
		}
	}

	channels := make([]string, len(g.cfg.Channels))
	copy(channels, g.cfg.Channels)

	return &Session{
		PublicKey: g.cfg.PublicKey,
		Email:     email,
		Amount:    MinorUnits(req.Amount),
		Currency:  g.cfg.Currency,
		Reference: ref,
		Channels:  channels,
		Metadata:  req.Metadata,
	}, nil
}

// MinorUnits converts a major-unit amount to kobo, rounding half up.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// MajorUnits converts kobo back to naira.
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

var referenceSpace = big.NewInt(1_000_000)

// GenerateReference returns PREFIX-<unix ms>-<6 random digits>. The random
// part comes from crypto/rand so concurrent checkouts in the same
// millisecond do not collide in practice.
func GenerateReference(prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}
	n, err := rand.Int(rand.Reader, referenceSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().UnixMilli(), n.Int64()), nil
}
