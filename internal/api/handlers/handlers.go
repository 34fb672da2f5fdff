// Package handlers implements the HTTP handlers for the AgentFi gateway.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/agent"
	"github.com/agentfi/agentfi/internal/guardrails"
	"github.com/agentfi/agentfi/internal/orchestrator"
	"github.com/agentfi/agentfi/internal/payments"
	"github.com/agentfi/agentfi/internal/reward"
	"github.com/agentfi/agentfi/internal/store"
	"github.com/agentfi/agentfi/internal/x402"
	"github.com/agentfi/agentfi/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Store        store.Store
	Registry     *agent.Registry
	Orchestrator *orchestrator.Orchestrator
	Gateway      *x402.Gateway
	Reward       *reward.Service
	Split        *payments.SplitService
	Provider     payments.Provider
}

// New creates a Handlers instance with all dependencies.
func New(s store.Store, reg *agent.Registry, orch *orchestrator.Orchestrator, gw *x402.Gateway, rw *reward.Service, split *payments.SplitService, provider payments.Provider) *Handlers {
	return &Handlers{
		Store:        s,
		Registry:     reg,
		Orchestrator: orch,
		Gateway:      gw,
		Reward:       rw,
		Split:        split,
		Provider:     provider,
	}
}

// ── Agents ──────────────────────────────────────────────────

// ListAgents returns the public agent listing.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents := h.Registry.List()
	infos := make([]models.AgentInfo, 0, len(agents))
	for _, a := range agents {
		infos = append(infos, models.AgentInfo{
			Name:         a.Name(),
			Description:  a.Description(),
			PricePerCall: a.PricePerCall(),
		})
	}
	respondJSON(w, http.StatusOK, models.AgentResponse{Success: true, Data: infos})
}

// ExecuteAgent runs a single agent. The x402 middleware has already gated
// the request; this handler executes, rewards, settles, and responds.
func (h *Handlers) ExecuteAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	var req models.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, models.AgentResponse{Success: false, Error: "invalid request body"})
		return
	}

	if v := guardrails.CheckQuery(req.Query); v != nil {
		respondJSON(w, http.StatusBadRequest, models.AgentResponse{Success: false, Error: v.Error()})
		return
	}

	ag, ok := h.Registry.Get(agentID)
	if !ok {
		respondJSON(w, http.StatusNotFound, models.AgentResponse{
			Success: false,
			Error:   "Unknown agent: " + agentID,
		})
		return
	}

	start := time.Now()
	result, err := ag.Execute(r.Context(), req.Query)
	if err != nil {
		respondJSON(w, http.StatusBadGateway, models.AgentResponse{Success: false, Error: err.Error()})
		return
	}

	// Post-execution money movement. Neither reward nor settlement failure
	// may alter the already-produced result.
	proof := h.Reward.Reward(r.Context(), agentID)
	h.settle(w, r)

	h.record(r, &models.ExecutionRecord{
		Kind:       "single",
		Agent:      agentID,
		Query:      req.Query,
		Steps:      1,
		DurationMs: time.Since(start).Milliseconds(),
	})

	respondJSON(w, http.StatusOK, models.AgentResponse{
		Success: true,
		Data: map[string]any{
			"result":     result,
			"afc_reward": proof,
		},
	})
}

// Orchestrate plans a multi-agent execution for the query and runs it.
func (h *Handlers) Orchestrate(w http.ResponseWriter, r *http.Request) {
	var req models.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, models.AgentResponse{Success: false, Error: "invalid request body"})
		return
	}
	if v := guardrails.CheckQuery(req.Query); v != nil {
		respondJSON(w, http.StatusBadRequest, models.AgentResponse{Success: false, Error: v.Error()})
		return
	}

	start := time.Now()
	result, err := h.Orchestrator.Execute(r.Context(), req.Query)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, orchestrator.ErrPlanParse) {
			status = http.StatusBadRequest
		}
		respondJSON(w, status, models.AgentResponse{Success: false, Error: err.Error()})
		return
	}

	// Reward the agent that produced the final result.
	var proof *models.RewardProof
	if n := len(result.AgentsInvoked); n > 0 {
		p := h.Reward.Reward(r.Context(), result.AgentsInvoked[n-1])
		proof = &p
	}
	h.settle(w, r)

	h.record(r, &models.ExecutionRecord{
		Kind:       "orchestration",
		Query:      req.Query,
		Steps:      len(result.Outputs),
		DurationMs: time.Since(start).Milliseconds(),
	})

	respondJSON(w, http.StatusOK, models.AgentResponse{
		Success: true,
		Data: map[string]any{
			"result":     result.Output,
			"steps":      len(result.Outputs),
			"afc_reward": proof,
		},
	})
}

// AgentEarnings returns the cumulative reward bookkeeping for one agent.
func (h *Handlers) AgentEarnings(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	earnings, err := h.Store.Earnings(r.Context(), agentID)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, models.AgentResponse{Success: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, models.AgentResponse{Success: true, Data: earnings})
}

// ListExecutions returns recent execution records, newest first.
func (h *Handlers) ListExecutions(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListExecutions(r.Context(), 100)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, models.AgentResponse{Success: false, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, models.AgentResponse{Success: true, Data: records})
}

// ── Payments ────────────────────────────────────────────────

// PaymentStatus reports the direct-charge provider's availability.
func (h *Handlers) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.AgentResponse{
		Success: true,
		Data: map[string]any{
			"provider":  h.Provider.Name(),
			"currency":  h.Provider.Currency(),
			"available": h.Provider.Available(r.Context()),
		},
	})
}

// splitRequest is the body of the internal split-payment endpoint.
type splitRequest struct {
	TotalAmount  float64 `json:"totalAmount"`
	PayerAccount string  `json:"payerAccount"`
	OwnerAccount string  `json:"ownerAccount"`
	AgentAccount string  `json:"agentAccount"`
}

// SplitPayment executes the 70/20/10 inter-agent split. It is reserved for
// trusted agent-to-agent flows, marked by the internal bypass header.
func (h *Handlers) SplitPayment(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(x402.HeaderInternal) != "true" {
		respondJSON(w, http.StatusForbidden, models.AgentResponse{Success: false, Error: "internal endpoint"})
		return
	}

	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, models.AgentResponse{Success: false, Error: "invalid request body"})
		return
	}
	if req.TotalAmount <= 0 || req.PayerAccount == "" || req.OwnerAccount == "" || req.AgentAccount == "" {
		respondJSON(w, http.StatusBadRequest, models.AgentResponse{Success: false, Error: "totalAmount and all accounts required"})
		return
	}

	result := h.Split.Split(r.Context(), req.TotalAmount, req.PayerAccount, req.OwnerAccount, req.AgentAccount)
	respondJSON(w, http.StatusOK, models.AgentResponse{Success: result.Success, Data: result})
}

// ── Helpers ─────────────────────────────────────────────────

// settle finalizes a facilitator-rail payment after execution and attaches
// the receipt header. Failures are logged and otherwise ignored.
func (h *Handlers) settle(w http.ResponseWriter, r *http.Request) {
	payment := x402.PaymentFromContext(r.Context())
	if payment == nil {
		return
	}
	if receipt, ok := h.Gateway.Settle(r.Context(), payment); ok {
		w.Header().Set(x402.HeaderPaymentResponse, receipt)
	}
}

func (h *Handlers) record(r *http.Request, rec *models.ExecutionRecord) {
	rec.ID = uuid.New().String()
	rec.Rail = x402.RailFromContext(r.Context())
	rec.CreatedAt = time.Now().UTC()
	if err := h.Store.RecordExecution(r.Context(), rec); err != nil {
		log.Warn().Err(err).Msg("failed to record execution")
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
