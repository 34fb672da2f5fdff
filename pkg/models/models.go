// Package models defines the shared data types for the AgentFi gateway:
// execution plans, x402 payment requirements and credentials, verified
// payments, split/reward outcomes, and the API envelopes.
package models

import (
	"encoding/json"
	"time"
)

// ── Execution Plans ──────────────────────────────────────────

// MaxPlanSteps caps the number of steps the planner may emit for one query.
const MaxPlanSteps = 4

// PlanStep is a single agent invocation in an execution plan. Input may
// reference earlier outputs with {step_N} placeholders (N < this step's index).
type PlanStep struct {
	Agent string `json:"agent"`
	Input string `json:"input"`
}

// ExecutionPlan is the ordered list of steps derived from a user query.
// It lives for exactly one request.
type ExecutionPlan struct {
	Steps []PlanStep `json:"steps"`
}

// RunResult is the outcome of executing a plan.
type RunResult struct {
	// Output is the last step's output, or the no-result sentinel for an
	// empty plan.
	Output string `json:"output"`

	// Outputs holds every step's output in step order.
	Outputs []string `json:"outputs"`

	// AgentsInvoked lists the agent ids that actually executed, in order.
	// Unknown agents are not included.
	AgentsInvoked []string `json:"agentsInvoked"`
}

// ── x402 Payment Protocol ────────────────────────────────────

// X402Version is the protocol version sent to and expected from facilitators.
const X402Version = 2

// PaymentRequirement describes one accepted payment rail for a resource,
// returned inside a 402 response.
type PaymentRequirement struct {
	Scheme            string         `json:"scheme"`
	Network           string         `json:"network"`
	Asset             string         `json:"asset"`
	MaxAmountRequired string         `json:"maxAmountRequired"`
	Resource          string         `json:"resource"`
	Description       string         `json:"description,omitempty"`
	PayTo             string         `json:"payTo"`
	MimeType          string         `json:"mimeType"`
	MaxTimeoutSeconds int            `json:"maxTimeoutSeconds"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// PaymentRequiredResponse is the JSON body of an x402 402 response.
type PaymentRequiredResponse struct {
	Error       string               `json:"error"`
	Message     string               `json:"message"`
	Accepts     []PaymentRequirement `json:"accepts"`
	X402Version int                  `json:"x402Version"`
}

// PaymentCredential is the decoded X-Payment request header. RawPayment
// preserves the exact bytes the payer sent so that facilitator verification
// and settlement replay them unmodified.
type PaymentCredential struct {
	Scheme        string `json:"scheme"`
	Network       string `json:"network"`
	TxHash        string `json:"txHash"`
	TransactionID string `json:"transactionId"`

	RawPayment json.RawMessage `json:"-"`
}

// TxReference returns whichever transaction reference the payer supplied.
func (c *PaymentCredential) TxReference() string {
	if c.TxHash != "" {
		return c.TxHash
	}
	return c.TransactionID
}

// VerifiedPayment is attached to a request exactly once after a rail verifies
// its credential, and consumed exactly once by the settlement step after the
// agent has executed.
type VerifiedPayment struct {
	Verified bool   `json:"verified"`
	Scheme   string `json:"scheme"`
	Network  string `json:"network"`
	Amount   string `json:"amount"`

	RawPayment json.RawMessage `json:"rawPayment"`

	// SettlementRequirements is set only for facilitator-rail payments.
	// The ledger-native rail settles atomically at verification time.
	SettlementRequirements *PaymentRequirement `json:"settlementRequirements,omitempty"`
}

// NeedsSettlement reports whether a post-execution settle call is required.
func (p *VerifiedPayment) NeedsSettlement() bool {
	return p != nil && p.SettlementRequirements != nil
}

// ── Transfers, Splits, Rewards ───────────────────────────────

type TransferStatus string

const (
	TransferSuccess TransferStatus = "success"
	TransferFailed  TransferStatus = "failed"
)

// TransferOutcome records the result of one token transfer leg.
type TransferOutcome struct {
	Recipient     string         `json:"recipient"`
	Amount        string         `json:"amount"`
	TransactionID string         `json:"transactionId,omitempty"`
	ExplorerURL   string         `json:"explorerUrl,omitempty"`
	Status        TransferStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
}

// Split leg names. Owner receives 70%, agent 20%, platform 10%.
const (
	LegOwner    = "owner"
	LegAgent    = "agent"
	LegPlatform = "platform"
)

// SplitResult records a three-way split payment. Success reflects only the
// owner leg — the owner payment is the primary economic event.
type SplitResult struct {
	TotalAmount string                     `json:"totalAmount"`
	Legs        map[string]TransferOutcome `json:"legs"`
	Success     bool                       `json:"success"`
}

// RewardProof attests that an agent received its post-execution reward,
// real or virtual. It is always populated, even when the transfer failed.
type RewardProof struct {
	TokenID     string `json:"tokenId"`
	Amount      string `json:"amount"`
	Recipient   string `json:"recipient"`
	Status      string `json:"status"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// ── Agent Listings & Earnings ────────────────────────────────

// AgentListing is the payment-side registry entry for one agent: its ledger
// accounts, per-rail prices, and on-chain identity. Loaded once at startup
// from the listings manifest.
type AgentListing struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	// PriceAFC is the ledger-native rail price (AFC, 2 decimals).
	PriceAFC float64 `json:"priceAfc" yaml:"price_afc"`
	// PriceUSDT is the facilitator rail price (USDT, 6 decimals on the wire).
	PriceUSDT float64 `json:"priceUsdt" yaml:"price_usdt"`

	AgentAccount string `json:"agentAccount" yaml:"agent_account"`
	OwnerAccount string `json:"ownerAccount" yaml:"owner_account"`

	// NFTTokenID identifies the agent's AgentNFT for on-chain authorization.
	NFTTokenID int64 `json:"nftTokenId" yaml:"nft_token_id"`

	X402Enabled bool `json:"x402Enabled" yaml:"x402_enabled"`
}

// Priced reports whether any rail is configured with a nonzero price.
func (l *AgentListing) Priced() bool {
	return l.PriceAFC > 0 || l.PriceUSDT > 0
}

// Earnings is the cumulative reward bookkeeping for one agent.
type Earnings struct {
	Agent string `json:"agent"`
	// TotalAFC is all AFC credited, real transfers included.
	TotalAFC float64 `json:"totalAfc"`
	// VirtualAFC is the share tracked only in the registry, for agents that
	// share the operator account.
	VirtualAFC float64 `json:"virtualAfc"`
	Executions int64   `json:"executions"`
}

// ── Execution Records ────────────────────────────────────────

// ExecutionRecord is the observability trail of one gated execution.
type ExecutionRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "single" or "orchestration"
	Agent      string    `json:"agent,omitempty"`
	Query      string    `json:"query"`
	Steps      int       `json:"steps"`
	Rail       string    `json:"rail,omitempty"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ── API Envelopes ────────────────────────────────────────────

// ExecuteRequest is the body of execute and orchestrate calls.
type ExecuteRequest struct {
	Query  string `json:"query"`
	Wallet string `json:"wallet,omitempty"`
}

// AgentResponse is the uniform API envelope.
type AgentResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// AgentInfo is the public listing entry returned by GET /agents.
type AgentInfo struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PricePerCall float64 `json:"price_per_call"`
}
