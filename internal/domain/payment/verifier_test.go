package payment

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// --- Mock implementations ---

type mockProvider struct {
	resp  *Verification
	err   error
	calls int
}

func (m *mockProvider) VerifyTransaction(_ context.Context, _ string) (*Verification, error) {
	m.calls++
	return m.resp, m.err
}

type mockLookup struct {
	refs  map[string]bool
	err   error
	calls int
}

func (m *mockLookup) ExistsByReference(_ context.Context, ref string) (bool, error) {
	m.calls++
	return m.refs[ref], m.err
}

// --- Helpers ---

func newTestVerifier(t *testing.T, p Provider, l OrderLookup) *Verifier {
	t.Helper()
	v, err := NewVerifier(p, l, metricnoop.NewMeterProvider().Meter("test"), tracenoop.NewTracerProvider().Tracer("test"))
	require.NoError(t, err)
	return v
}

func successTx(ref string, kobo int64) *Verification {
	return &Verification{
		Status:  true,
		Message: "Verification successful",
		Data: &Transaction{
			Reference: ref,
			Amount:    kobo,
			Status:    "success",
			PaidAt:    "2025-06-15T12:01:00.000Z",
			Customer:  Customer{Email: "ada@example.com", ID: 4417},
			Authorization: Authorization{
				AuthorizationCode: "AUTH_abc",
				Bin:               "408408",
				Last4:             "4081",
				ExpMonth:          "12",
				ExpYear:           "2030",
				Channel:           "card",
				CardType:          "visa",
			},
		},
	}
}

// --- Tests ---

func TestVerify_EndToEndSuccess(t *testing.T) {
	p := &mockProvider{resp: successTx("abc123", 150000)}
	l := &mockLookup{}
	v := newTestVerifier(t, p, l)

	res := v.Verify(context.Background(), VerifyRequest{Reference: "abc123", Amount: []byte("1500")})

	require.True(t, res.Verified)
	assert.Equal(t, CodeVerified, res.Code)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.Data)
	assert.True(t, decimal.NewFromInt(1500).Equal(res.Data.Amount))
	assert.Equal(t, "abc123", res.Data.Reference)
	assert.Equal(t, "success", res.Data.Status)
	assert.Equal(t, "ada@example.com", res.Data.Customer.Email)
	assert.Equal(t, "4081", res.Data.Authorization.Last4)
	assert.Equal(t, 1, l.calls)
}

func TestVerify_Refusals(t *testing.T) {
	tests := []struct {
		name      string
		req       VerifyRequest
		provider  *mockProvider
		lookup    *mockLookup
		noProv    bool
		wantCode  Code
		wantError string
	}{
		{
			name:      "missing reference",
			req:       VerifyRequest{Amount: []byte("1500")},
			wantCode:  CodeInvalidInput,
			wantError: "Missing payment reference or amount",
		},
		{
			name:     "blank reference",
			req:      VerifyRequest{Reference: "   ", Amount: []byte("1500")},
			wantCode: CodeInvalidInput,
		},
		{
			name:     "missing amount",
			req:      VerifyRequest{Reference: "abc"},
			wantCode: CodeInvalidInput,
		},
		{
			name:     "null amount",
			req:      VerifyRequest{Reference: "abc", Amount: []byte("null")},
			wantCode: CodeInvalidInput,
		},
		{
			name:      "string amount",
			req:       VerifyRequest{Reference: "abc", Amount: []byte(`"1500"`)},
			wantCode:  CodeInvalidAmount,
			wantError: "Invalid amount",
		},
		{
			name:     "zero amount",
			req:      VerifyRequest{Reference: "abc", Amount: []byte("0")},
			wantCode: CodeInvalidAmount,
		},
		{
			name:     "negative amount",
			req:      VerifyRequest{Reference: "abc", Amount: []byte("-5")},
			wantCode: CodeInvalidAmount,
		},
		{
			name:      "no provider",
			req:       VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			noProv:    true,
			wantCode:  CodeServiceError,
			wantError: "Payment service not configured",
		},
		{
			name:     "provider without secret",
			req:      VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider: &mockProvider{err: ErrProviderNotConfigured},
			wantCode: CodeServiceError,
		},
		{
			name:      "envelope status false",
			req:       VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider:  &mockProvider{resp: &Verification{Status: false, Message: "Transaction reference not found"}},
			wantCode:  CodePaystackFailed,
			wantError: "Payment verification failed with Paystack",
		},
		{
			name: "abandoned charge",
			req:  VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider: &mockProvider{resp: func() *Verification {
				r := successTx("abc", 150000)
				r.Data.Status = "abandoned"
				return r
			}()},
			wantCode:  CodePaymentNotSuccess,
			wantError: "Payment status is abandoned",
		},
		{
			name:      "amount mismatch",
			req:       VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider:  &mockProvider{resp: successTx("abc", 100000)},
			wantCode:  CodeAmountMismatch,
			wantError: "Amount mismatch detected",
		},
		{
			name:     "two kobo off is a mismatch",
			req:      VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider: &mockProvider{resp: successTx("abc", 150002)},
			wantCode: CodeAmountMismatch,
		},
		{
			name:      "reference already used",
			req:       VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider:  &mockProvider{resp: successTx("abc", 150000)},
			lookup:    &mockLookup{refs: map[string]bool{"abc": true}},
			wantCode:  CodeDuplicatePayment,
			wantError: "This payment reference has already been used",
		},
		{
			name:      "transport failure",
			req:       VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider:  &mockProvider{err: errors.New("dial tcp: i/o timeout")},
			wantCode:  CodeVerificationError,
			wantError: "Unable to verify payment. Please contact support.",
		},
		{
			name:     "lookup failure",
			req:      VerifyRequest{Reference: "abc", Amount: []byte("1500")},
			provider: &mockProvider{resp: successTx("abc", 150000)},
			lookup:   &mockLookup{err: errors.New("connection reset")},
			wantCode: CodeVerificationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Provider
			if tt.provider != nil {
				p = tt.provider
			} else if !tt.noProv {
				p = &mockProvider{resp: successTx("abc", 150000)}
			}
			l := tt.lookup
			if l == nil {
				l = &mockLookup{}
			}

			res := newTestVerifier(t, p, l).Verify(context.Background(), tt.req)

			assert.False(t, res.Verified)
			assert.Nil(t, res.Data)
			assert.Equal(t, tt.wantCode, res.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, res.Error)
			}
			assert.NotContains(t, res.Error, "dial tcp")
			assert.NotContains(t, res.Error, "connection reset")
		})
	}
}

func TestVerify_ShortCircuits(t *testing.T) {
	p := &mockProvider{resp: successTx("abc", 150000)}
	l := &mockLookup{}
	v := newTestVerifier(t, p, l)

	res := v.Verify(context.Background(), VerifyRequest{Reference: "abc", Amount: []byte("0")})
	assert.Equal(t, CodeInvalidAmount, res.Code)
	assert.Zero(t, p.calls, "provider must not be called on bad input")

	p.resp = successTx("abc", 1)
	res = v.Verify(context.Background(), VerifyRequest{Reference: "abc", Amount: []byte("1500")})
	assert.Equal(t, CodeAmountMismatch, res.Code)
	assert.Zero(t, l.calls, "duplicate check runs after the amount check")
}

func TestVerify_ToleratesRoundingDrift(t *testing.T) {
	p := &mockProvider{resp: successTx("abc", 150001)}
	v := newTestVerifier(t, p, &mockLookup{})

	res := v.Verify(context.Background(), VerifyRequest{Reference: "abc", Amount: []byte("1500.00")})
	assert.True(t, res.Verified)

	p.resp = successTx("abc", 78305)
	res = v.Verify(context.Background(), VerifyRequest{Reference: "abc", Amount: []byte("783.05")})
	assert.True(t, res.Verified)
}
