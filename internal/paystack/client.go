// Package paystack is a minimal client for the Paystack REST API.
package paystack

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
)

const (
	// DefaultBaseURL is the production Paystack API.
	DefaultBaseURL = "https://api.paystack.co"
	// MaxTimeout bounds every call to Paystack.
	MaxTimeout = 10 * time.Second

	maxBodySize = 1 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client calls the Paystack API with the secret key.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

var _ payment.Provider = (*Client)(nil)

// NewClient creates a Client. The timeout defaults to, and is capped at,
// MaxTimeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL:   base,
		secretKey: cfg.SecretKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// VerifyTransaction calls GET /transaction/verify/{reference}.
//
// A non-2xx response whose body is still a Paystack envelope is returned as
// a Verification with Status false; anything else is an error.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*payment.Verification, error) {
	if c.secretKey == "" {
		return nil, payment.ErrProviderNotConfigured
	}

	u := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	v, err := decodeVerification(body)
	if err != nil {
		return nil, errors.Wrapf(err, "decode response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.Status = false
		v.Data = nil
	}
	return v, nil
}
