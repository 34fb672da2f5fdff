// Package x402 implements the payment gateway that gates agent execution.
//
// Each incoming request is evaluated against an ordered decision chain —
// first matching rule wins:
//
//  1. Internal bypass: trusted agent-to-agent calls carry a dedicated header
//     and pass unconditionally (they are pre-paid via the split flow).
//  2. On-chain authorization: a wallet the AgentNFT contract reports as
//     authorized for this agent passes without a per-call payment.
//  3. Payment credential: an X-Payment header is dispatched to the rail its
//     network identifier selects (ledger-native unless eip155) and, when
//     verified, the request passes carrying the VerifiedPayment.
//  4. Payment required: a priced resource without a valid payment gets a
//     structured 402 enumerating one requirement per configured rail,
//     ledger-native first.
//
// The two outcomes are mutually exclusive: a request either passes or gets
// the 402, never both.
package x402

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/authz"
	"github.com/agentfi/agentfi/internal/config"
	"github.com/agentfi/agentfi/internal/store"
	"github.com/agentfi/agentfi/pkg/models"
)

// Request/response headers of the x402 protocol.
const (
	HeaderPayment         = "X-Payment"
	HeaderPaymentRequired = "X-Payment-Required"
	HeaderPaymentResponse = "X-Payment-Response"
	HeaderInternal        = "X-AgentFi-Internal"
	HeaderWallet          = "X-Wallet-Address"
)

// Rail names recorded on execution records.
const (
	RailBypass      = "bypass"
	RailOnChain     = "on-chain"
	RailLedger      = "hedera"
	RailFacilitator = "facilitator"
	RailFree        = "free"
)

// Decision is the gateway's verdict for one request. Exactly one of the
// pass forms or Required is set.
type Decision struct {
	// Allow reports that the request may proceed.
	Allow bool
	// Rail names the rule that allowed the request.
	Rail string
	// Payment carries the verified credential when rule 3 matched.
	Payment *models.VerifiedPayment
	// Required is the 402 body when no rule allowed the request.
	Required *models.PaymentRequiredResponse
}

// Gateway evaluates the payment decision chain.
type Gateway struct {
	listings store.ListingStore
	ledger   *LedgerVerifier
	fac      *FacilitatorClient
	oracle   authz.Oracle

	network    string // ledger-native network identifier
	chainID    int64  // facilitator chain id
	kiteWallet string
	usdtAsset  string
	tokenID    string
}

// NewGateway wires the gateway from config and its rail collaborators.
func NewGateway(cfg *config.Config, listings store.ListingStore, ledgerVerifier *LedgerVerifier, fac *FacilitatorClient, oracle authz.Oracle) *Gateway {
	return &Gateway{
		listings:   listings,
		ledger:     ledgerVerifier,
		fac:        fac,
		oracle:     oracle,
		network:    cfg.Hedera.Network,
		chainID:    cfg.X402.ChainID,
		kiteWallet: cfg.X402.KiteWallet,
		usdtAsset:  cfg.X402.USDTAsset,
		tokenID:    cfg.Hedera.TokenID,
	}
}

// Check runs the decision chain for one request targeting the named agent.
func (g *Gateway) Check(r *http.Request, agentName string) Decision {
	ctx := r.Context()

	// Rule 1: internal cross-agent call, pre-paid via the split flow.
	if r.Header.Get(HeaderInternal) == "true" {
		return Decision{Allow: true, Rail: RailBypass}
	}

	listing, err := g.listings.GetListing(ctx, agentName)
	if err != nil {
		listing = nil
	}

	// Rule 2: wallet pre-authorized on-chain via hireAgent().
	if wallet := walletFrom(r); wallet != "" && listing != nil {
		if g.oracle.IsAuthorized(ctx, listing.NFTTokenID, wallet) {
			log.Info().Str("wallet", truncate(wallet, 10)).Str("agent", agentName).
				Msg("wallet authorized on-chain")
			return Decision{Allow: true, Rail: RailOnChain}
		}
	}

	// Rule 3: payment credential attached — verify on its rail.
	if cred := decodeCredential(r); cred != nil && listing != nil {
		if payment, rail, ok := g.verify(ctx, cred, listing); ok {
			log.Info().Str("agent", agentName).Str("network", cred.Network).
				Msg("payment verified")
			return Decision{Allow: true, Rail: rail, Payment: payment}
		}
		log.Warn().Str("agent", agentName).Str("network", cred.Network).
			Msg("payment invalid")
	}

	// Rule 4: pass when nothing is priced, otherwise demand payment.
	if listing == nil || !listing.X402Enabled || !listing.Priced() {
		return Decision{Allow: true, Rail: RailFree}
	}
	return Decision{Required: g.paymentRequired(listing)}
}

// verify dispatches the credential to the rail its network selects. Exactly
// one rail is attempted per credential; rails are never raced.
func (g *Gateway) verify(ctx context.Context, cred *models.PaymentCredential, listing *models.AgentListing) (*models.VerifiedPayment, string, bool) {
	if !strings.HasPrefix(cred.Network, "eip155:") {
		amount, ok := g.ledger.Verify(ctx, cred, listing)
		if !ok {
			return nil, "", false
		}
		scheme := cred.Scheme
		if scheme == "" {
			scheme = "unknown"
		}
		return &models.VerifiedPayment{
			Verified:   true,
			Scheme:     scheme,
			Network:    cred.Network,
			Amount:     amount,
			RawPayment: cred.RawPayment,
			// No settlement step: ledger verification is settlement.
		}, RailLedger, true
	}

	req := g.facilitatorRequirement(listing)
	if !g.fac.Verify(ctx, cred.RawPayment, req) {
		return nil, "", false
	}
	scheme := cred.Scheme
	if scheme == "" {
		scheme = "exact"
	}
	return &models.VerifiedPayment{
		Verified:               true,
		Scheme:                 scheme,
		Network:                cred.Network,
		Amount:                 req.MaxAmountRequired,
		RawPayment:             cred.RawPayment,
		SettlementRequirements: &req,
	}, RailFacilitator, true
}

// Settle finalizes a verified payment after execution. Ledger-native
// payments settled at verification time yield no receipt. Settlement
// failure never affects the already-produced execution result.
func (g *Gateway) Settle(ctx context.Context, payment *models.VerifiedPayment) (string, bool) {
	if !payment.NeedsSettlement() {
		return "", false
	}
	return g.fac.Settle(ctx, payment)
}

// ── Payment Requirements ────────────────────────────────────

// paymentRequired builds the 402 body enumerating every priced rail,
// ledger-native first.
func (g *Gateway) paymentRequired(listing *models.AgentListing) *models.PaymentRequiredResponse {
	var accepts []models.PaymentRequirement
	if listing.PriceAFC > 0 {
		accepts = append(accepts, g.ledgerRequirement(listing))
	}
	if listing.PriceUSDT > 0 {
		accepts = append(accepts, g.facilitatorRequirement(listing))
	}
	return &models.PaymentRequiredResponse{
		Error:       "X402PaymentRequired",
		Message:     "This agent requires payment. Choose from the accepted payment methods below.",
		Accepts:     accepts,
		X402Version: models.X402Version,
	}
}

// ledgerRequirement prices the resource on the ledger-native rail: integer
// minor units at 2 decimals, paid to the agent's ledger account, split model
// advertised in extra.
func (g *Gateway) ledgerRequirement(listing *models.AgentListing) models.PaymentRequirement {
	return models.PaymentRequirement{
		Scheme:            "hedera-hts",
		Network:           g.network,
		Asset:             "AFC",
		MaxAmountRequired: strconv.FormatInt(int64(listing.PriceAFC*100), 10),
		Resource:          resourceFor(listing.Name),
		Description:       fmt.Sprintf("AgentFi %s — inter-agent analysis", listing.Name),
		PayTo:             listing.AgentAccount,
		MimeType:          "application/json",
		MaxTimeoutSeconds: 60,
		Extra: map[string]any{
			"tokenId":      listing.NFTTokenID,
			"ownerAccount": listing.OwnerAccount,
			"splitModel":   "70-20-10",
		},
	}
}

// facilitatorRequirement prices the resource on the facilitator rail:
// integer minor units at 6 decimals, eip155 network, fixed token contract.
func (g *Gateway) facilitatorRequirement(listing *models.AgentListing) models.PaymentRequirement {
	return models.PaymentRequirement{
		Scheme:            "exact",
		Network:           fmt.Sprintf("eip155:%d", g.chainID),
		Asset:             g.usdtAsset,
		MaxAmountRequired: strconv.FormatInt(int64(listing.PriceUSDT*1_000_000), 10),
		Resource:          resourceFor(listing.Name),
		Description:       fmt.Sprintf("AgentFi %s — AI DeFi analysis via x402", listing.Name),
		PayTo:             g.kiteWallet,
		MimeType:          "application/json",
		MaxTimeoutSeconds: 300,
	}
}

func resourceFor(agentName string) string {
	return "/agents/" + agentName + "/execute"
}

// ── HTTP Integration ────────────────────────────────────────

type ctxKey int

const paymentKey ctxKey = 0

// PaymentFromContext returns the VerifiedPayment attached by the gateway
// middleware, or nil when the request passed without one.
func PaymentFromContext(ctx context.Context) *models.VerifiedPayment {
	payment, _ := ctx.Value(paymentKey).(*models.VerifiedPayment)
	return payment
}

type railKey int

const railCtxKey railKey = 0

// RailFromContext returns the rail name the gateway recorded for a passed
// request.
func RailFromContext(ctx context.Context) string {
	rail, _ := ctx.Value(railCtxKey).(string)
	return rail
}

// Middleware gates a chi route carrying an {agentID} URL parameter. Allowed
// requests continue with the VerifiedPayment (if any) on their context;
// everything else receives the 402.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return g.gate(next, func(r *http.Request) string {
		return chi.URLParam(r, "agentID")
	})
}

// MiddlewareNamed gates a route against a fixed listing name, for resources
// like the orchestrator that carry no agent URL parameter.
func (g *Gateway) MiddlewareNamed(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.gate(next, func(*http.Request) string { return name })
	}
}

func (g *Gateway) gate(next http.Handler, resolve func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Check(r, resolve(r))
		if !decision.Allow {
			w.Header().Set(HeaderPaymentRequired, "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(decision.Required)
			return
		}

		ctx := context.WithValue(r.Context(), railCtxKey, decision.Rail)
		if decision.Payment != nil {
			ctx = context.WithValue(ctx, paymentKey, decision.Payment)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// decodeCredential parses the base64-encoded JSON X-Payment header. A
// missing or malformed header yields nil.
func decodeCredential(r *http.Request) *models.PaymentCredential {
	header := r.Header.Get(HeaderPayment)
	if header == "" {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		log.Warn().Err(err).Msg("payment header is not valid base64")
		return nil
	}

	var cred models.PaymentCredential
	if err := json.Unmarshal(decoded, &cred); err != nil {
		log.Warn().Err(err).Msg("payment header is not valid JSON")
		return nil
	}
	cred.RawPayment = json.RawMessage(decoded)
	return &cred
}

func walletFrom(r *http.Request) string {
	if w := r.Header.Get(HeaderWallet); w != "" {
		return w
	}
	return r.URL.Query().Get("wallet")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
