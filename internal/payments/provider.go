// Package payments holds the payment provider abstraction and the
// three-way split service for inter-agent payments.
package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Result is the explicit outcome of a charge. Failures are values, not
// errors: every call site gets a typed non-exceptional failure path.
type Result struct {
	Success       bool    `json:"success"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Error         string  `json:"error,omitempty"`
}

// Provider is one payment rail for direct charges. The variant (mock,
// x402) is chosen once at construction, never by runtime switching.
type Provider interface {
	Name() string
	Currency() string
	Charge(ctx context.Context, from, to string, amount float64, metadata map[string]any) Result
	Available(ctx context.Context) bool
}

// ── Mock Provider ───────────────────────────────────────────

// MockProvider logs charges without executing them. Used in mock mode.
type MockProvider struct{}

func (MockProvider) Name() string     { return "mock" }
func (MockProvider) Currency() string { return "MOCK" }

func (MockProvider) Charge(ctx context.Context, from, to string, amount float64, metadata map[string]any) Result {
	log.Info().
		Str("from", from).
		Str("to", to).
		Float64("amount", amount).
		Interface("metadata", metadata).
		Msg("mock payment charge")
	return Result{
		Success:       true,
		TransactionID: "mock-" + uuid.New().String(),
		Amount:        amount,
		Currency:      "MOCK",
	}
}

func (MockProvider) Available(ctx context.Context) bool { return true }

// ── x402 Provider ───────────────────────────────────────────

// X402Provider will charge via the x402 facilitator rail. Direct charges
// are not wired yet; the gateway handles the verify/settle flow instead.
// TODO: implement once the facilitator exposes a direct charge endpoint.
type X402Provider struct{}

func (X402Provider) Name() string     { return "x402" }
func (X402Provider) Currency() string { return "pieUSD" }

func (X402Provider) Charge(ctx context.Context, from, to string, amount float64, metadata map[string]any) Result {
	return Result{
		Success:  false,
		Amount:   amount,
		Currency: "pieUSD",
		Error:    "x402 direct charges not implemented; use the payment gateway",
	}
}

func (X402Provider) Available(ctx context.Context) bool { return false }
