package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agentfi/agentfi/internal/api/handlers"
	"github.com/agentfi/agentfi/internal/api/middleware"
	"github.com/agentfi/agentfi/internal/config"
	"github.com/agentfi/agentfi/internal/x402"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers, gw *x402.Gateway) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type", "X-Request-Id",
			x402.HeaderPayment, x402.HeaderWallet, x402.HeaderInternal,
		},
		ExposedHeaders:   []string{"X-Request-Id", x402.HeaderPaymentRequired, x402.HeaderPaymentResponse},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// Agents
	r.Route("/agents", func(r chi.Router) {
		r.Get("/", h.ListAgents)
		r.Route("/{agentID}", func(r chi.Router) {
			r.With(gw.Middleware).Post("/execute", h.ExecuteAgent)
			r.Get("/earnings", h.AgentEarnings)
		})
	})

	// Orchestration — gated under its own resource name
	r.With(gw.MiddlewareNamed("orchestrator")).Post("/orchestrate", h.Orchestrate)

	// Payments
	r.Route("/payments", func(r chi.Router) {
		r.Get("/status", h.PaymentStatus)
		r.Post("/split", h.SplitPayment)
	})

	// Observability
	r.Get("/executions", h.ListExecutions)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "agentfi-gateway",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"mode":    cfg.Mode,
		})
	}
}
