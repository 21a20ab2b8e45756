package payment

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Code classifies a verification outcome.
type Code string

const (
	CodeVerified          Code = "VERIFIED"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeInvalidAmount     Code = "INVALID_AMOUNT"
	CodeServiceError      Code = "SERVICE_ERROR"
	CodePaystackFailed    Code = "PAYSTACK_FAILED"
	CodePaymentNotSuccess Code = "PAYMENT_NOT_SUCCESS"
	CodeAmountMismatch    Code = "AMOUNT_MISMATCH"
	CodeDuplicatePayment  Code = "DUPLICATE_PAYMENT"
	CodeVerificationError Code = "VERIFICATION_ERROR"
)

// ErrProviderNotConfigured is returned by a Provider that has no secret key.
var ErrProviderNotConfigured = errors.New("payment provider not configured")

// amountTolerance absorbs rounding drift between kobo and naira.
var amountTolerance = decimal.RequireFromString("0.01")

// Transaction is the provider's record of a charge. Amount is in kobo.
type Transaction struct {
	Reference     string
	Amount        int64
	Status        string
	PaidAt        string
	Customer      Customer
	Authorization Authorization
}

// Verification is the provider's verify envelope.
type Verification struct {
	Status  bool
	Message string
	Data    *Transaction
}

// Provider verifies a transaction with the payment provider using the
// secret key.
type Provider interface {
	VerifyTransaction(ctx context.Context, reference string) (*Verification, error)
}

// OrderLookup reports whether an order has already consumed a reference.
type OrderLookup interface {
	ExistsByReference(ctx context.Context, reference string) (bool, error)
}

// VerifyRequest is the client's claim that a payment went through. Amount
// is kept raw so that a missing, null or non-numeric value can be told
// apart.
type VerifyRequest struct {
	Reference string
	Amount    []byte
}

// Customer identifies the payer on the provider side.
type Customer struct {
	Email string `json:"email,omitempty"`
	ID    int64  `json:"id,omitempty"`
}

// Authorization is the card metadata Paystack returns for a charge.
type Authorization struct {
	AuthorizationCode string `json:"authorization_code,omitempty"`
	Bin               string `json:"bin,omitempty"`
	Last4             string `json:"last4,omitempty"`
	ExpMonth          string `json:"exp_month,omitempty"`
	ExpYear           string `json:"exp_year,omitempty"`
	Channel           string `json:"channel,omitempty"`
	CardType          string `json:"card_type,omitempty"`
}

// VerifiedPayment is the normalized payload of a verified charge.
type VerifiedPayment struct {
	Reference     string
	Amount        decimal.Decimal
	Status        string
	PaidAt        string
	Customer      Customer
	Authorization Authorization
}

// Result is the outcome of a verification. It is never persisted.
type Result struct {
	Verified bool
	Data     *VerifiedPayment
	Error    string
	Code     Code
}

func refused(code Code, msg string) *Result {
	return &Result{Code: code, Error: msg}
}

// Verifier re-checks a client-reported payment against Paystack.
type Verifier struct {
	provider Provider
	orders   OrderLookup

	outcomes metric.Int64Counter
	tracer   trace.Tracer
}

// NewVerifier creates a Verifier. A nil provider makes every well-formed
// request fail with SERVICE_ERROR.
func NewVerifier(provider Provider, orders OrderLookup, meter metric.Meter, tracer trace.Tracer) (*Verifier, error) {
	outcomes, err := meter.Int64Counter("payment.verification.outcomes",
		metric.WithDescription("Payment verification outcomes by result code"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create counter")
	}
	return &Verifier{
		provider: provider,
		orders:   orders,
		outcomes: outcomes,
		tracer:   tracer,
	}, nil
}

// Verify checks, in order: input shape, provider configuration, provider
// envelope, charge status, amount and prior use of the reference. The first
// failing check decides the result. Unexpected errors are reported as
// VERIFICATION_ERROR with a generic message; the detail is only logged.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) *Result {
	ctx, span := v.tracer.Start(ctx, "payment.Verify",
		trace.WithAttributes(attribute.String("payment.reference", req.Reference)),
	)
	defer span.End()

	res, err := v.verify(ctx, req)
	if err != nil {
		zctx.From(ctx).Error("Payment verification error",
			zap.String("reference", req.Reference),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification error")
		res = refused(CodeVerificationError, "Unable to verify payment. Please contact support.")
	}

	span.SetAttributes(attribute.String("payment.code", string(res.Code)))
	v.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(res.Code))))
	return res
}

func (v *Verifier) verify(ctx context.Context, req VerifyRequest) (*Result, error) {
	lg := zctx.From(ctx).With(zap.String("reference", req.Reference))

	reference := strings.TrimSpace(req.Reference)
	if reference == "" || isNull(req.Amount) {
		lg.Warn("Missing payment parameters")
		return refused(CodeInvalidInput, "Missing payment reference or amount"), nil
	}
	expected, ok := parseAmount(req.Amount)
	if !ok {
		lg.Warn("Invalid amount provided", zap.ByteString("amount", req.Amount))
		return refused(CodeInvalidAmount, "Invalid amount"), nil
	}

	if v.provider == nil {
		lg.Error("Paystack secret key not configured")
		return refused(CodeServiceError, "Payment service not configured"), nil
	}

	resp, err := v.provider.VerifyTransaction(ctx, reference)
	if errors.Is(err, ErrProviderNotConfigured) {
		lg.Error("Paystack secret key not configured")
		return refused(CodeServiceError, "Payment service not configured"), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "verify transaction")
	}
	if !resp.Status || resp.Data == nil {
		lg.Warn("Paystack verification failed", zap.String("message", resp.Message))
		return refused(CodePaystackFailed, "Payment verification failed with Paystack"), nil
	}

	tx := resp.Data
	if tx.Status != "success" {
		lg.Warn("Payment not successful", zap.String("paystack_status", tx.Status))
		return refused(CodePaymentNotSuccess, "Payment status is "+tx.Status), nil
	}

	actual := MajorUnits(tx.Amount)
	if actual.Sub(expected).Abs().GreaterThan(amountTolerance) {
		lg.Error("Suspected fraud: amount mismatch",
			zap.Stringer("expected_amount", expected),
			zap.Stringer("actual_amount", actual),
			zap.Stringer("difference", expected.Sub(actual)),
		)
		return refused(CodeAmountMismatch, "Amount mismatch detected"), nil
	}

	used, err := v.orders.ExistsByReference(ctx, reference)
	if err != nil {
		return nil, errors.Wrap(err, "check reference")
	}
	if used {
		lg.Warn("Duplicate payment attempt")
		return refused(CodeDuplicatePayment, "This payment reference has already been used"), nil
	}

	lg.Info("Payment verified",
		zap.Stringer("amount", actual),
		zap.String("customer", tx.Customer.Email),
	)
	return &Result{
		Verified: true,
		Code:     CodeVerified,
		Data: &VerifiedPayment{
			Reference:     tx.Reference,
			Amount:        actual,
			Status:        tx.Status,
			PaidAt:        tx.PaidAt,
			Customer:      tx.Customer,
			Authorization: tx.Authorization,
		},
	}, nil
}

func isNull(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	return jx.DecodeBytes(raw).Next() == jx.Null
}

// parseAmount accepts a positive JSON number.
func parseAmount(raw []byte) (decimal.Decimal, bool) {
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Number {
		return decimal.Zero, false
	}
	num, err := d.Num()
	if err != nil {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(num.String())
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}
