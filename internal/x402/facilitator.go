package x402

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/pkg/models"
)

// FacilitatorClient talks to the external facilitator that verifies and
// settles payments on the EVM rail. Every failure — non-200, timeout,
// malformed body — means "not verified" or "not settled", never a fatal
// error.
type FacilitatorClient struct {
	baseURL      string
	verifyClient *http.Client
	settleClient *http.Client
}

// NewFacilitatorClient creates a client for the given facilitator origin,
// e.g. "https://facilitator.pieverse.io".
func NewFacilitatorClient(baseURL string) *FacilitatorClient {
	return &FacilitatorClient{
		baseURL:      baseURL,
		verifyClient: &http.Client{Timeout: 15 * time.Second},
		settleClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// facilitatorRequest is the triple both endpoints accept.
type facilitatorRequest struct {
	X402Version         int                       `json:"x402Version"`
	Payment             json.RawMessage           `json:"payment"`
	PaymentRequirements models.PaymentRequirement `json:"paymentRequirements"`
}

// Verify checks the payment against the facilitator's verify endpoint.
func (f *FacilitatorClient) Verify(ctx context.Context, payment json.RawMessage, req models.PaymentRequirement) bool {
	body, err := f.post(ctx, f.verifyClient, "/v2/verify", payment, req)
	if err != nil {
		log.Warn().Err(err).Msg("facilitator verify failed")
		return false
	}

	var result struct {
		IsValid bool `json:"isValid"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Warn().Err(err).Msg("facilitator verify: malformed body")
		return false
	}
	if !result.IsValid {
		log.Warn().RawJSON("result", body).Msg("facilitator rejected payment")
	}
	return result.IsValid
}

// Settle finalizes a verified facilitator-rail payment. On success it
// returns a base64-encoded receipt for the X-Payment-Response header; on
// any failure it returns ok=false and the caller proceeds without a
// receipt — the already-completed execution is unaffected.
func (f *FacilitatorClient) Settle(ctx context.Context, payment *models.VerifiedPayment) (string, bool) {
	if !payment.NeedsSettlement() {
		return "", false
	}

	body, err := f.post(ctx, f.settleClient, "/v2/settle", payment.RawPayment, *payment.SettlementRequirements)
	if err != nil {
		log.Error().Err(err).Msg("facilitator settle failed")
		return "", false
	}

	var result struct {
		TxHash string `json:"txHash"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Error().Err(err).Msg("facilitator settle: malformed body")
		return "", false
	}

	log.Info().Str("tx", result.TxHash).Msg("payment settled")
	return base64.StdEncoding.EncodeToString(body), true
}

func (f *FacilitatorClient) post(ctx context.Context, client *http.Client, path string, payment json.RawMessage, req models.PaymentRequirement) ([]byte, error) {
	payload, err := json.Marshal(facilitatorRequest{
		X402Version:         models.X402Version,
		Payment:             payment,
		PaymentRequirements: req,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", f.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
