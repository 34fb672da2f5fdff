// Package server provides the public entry point for initializing the
// AgentFi gateway: it wires the agent registry, the orchestrator, the x402
// payment gateway with both rails, and the reward/split services, and
// returns a ready HTTP handler.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/agent"
	"github.com/agentfi/agentfi/internal/api"
	"github.com/agentfi/agentfi/internal/api/handlers"
	"github.com/agentfi/agentfi/internal/authz"
	"github.com/agentfi/agentfi/internal/config"
	"github.com/agentfi/agentfi/internal/ledger"
	"github.com/agentfi/agentfi/internal/llm"
	"github.com/agentfi/agentfi/internal/orchestrator"
	"github.com/agentfi/agentfi/internal/payments"
	"github.com/agentfi/agentfi/internal/retention"
	"github.com/agentfi/agentfi/internal/reward"
	"github.com/agentfi/agentfi/internal/store"
	"github.com/agentfi/agentfi/internal/telemetry"
	"github.com/agentfi/agentfi/internal/tools"
	"github.com/agentfi/agentfi/internal/x402"
)

// Server holds the initialized AgentFi gateway.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the registry/earnings store.
	Store store.Store

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all gateway components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the gateway with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore := store.NewMemoryStore()
	listings, err := config.LoadListings(cfg.ListingsPath)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	for i := range listings {
		if err := dataStore.PutListing(ctx, &listings[i]); err != nil {
			return nil, fmt.Errorf("seed listing %s: %w", listings[i].Name, err)
		}
	}
	log.Info().Int("listings", len(listings)).Msg("Agent listings loaded")

	// Ledger client + direct-charge provider, per mode.
	var ledgerClient ledger.Client
	var provider payments.Provider
	if cfg.Mode == "live" && cfg.Hedera.OperatorAccount != "" {
		hc, err := ledger.NewHederaClient(cfg.Hedera.Network, cfg.Hedera.OperatorAccount, cfg.Hedera.OperatorKey)
		if err != nil {
			return nil, fmt.Errorf("init hedera client: %w", err)
		}
		ledgerClient = hc
		provider = payments.X402Provider{}
		log.Info().Str("network", cfg.Hedera.Network).Msg("Hedera ledger client initialized")
	} else {
		ledgerClient = ledger.MockClient{}
		provider = payments.MockProvider{}
		log.Info().Msg("Mock ledger client initialized")
	}

	mirror := ledger.NewMirrorClient(cfg.Hedera.MirrorURL)

	// On-chain authorization oracle; disabled unless configured.
	var oracle authz.Oracle = authz.Disabled{}
	if cfg.Authz.RPCURL != "" && cfg.Authz.Contract != "" {
		nftOracle, err := authz.NewNFTOracle(ctx, cfg.Authz.RPCURL, cfg.Authz.Contract)
		if err != nil {
			return nil, fmt.Errorf("init authz oracle: %w", err)
		}
		oracle = nftOracle
		log.Info().Str("contract", cfg.Authz.Contract).Msg("On-chain authorization oracle initialized")
	}

	// Payment gateway with both rails.
	ledgerVerifier := x402.NewLedgerVerifier(mirror, cfg.Hedera.TokenID)
	facilitator := x402.NewFacilitatorClient(cfg.X402.FacilitatorURL)
	gateway := x402.NewGateway(cfg, dataStore, ledgerVerifier, facilitator, oracle)

	// Agents + orchestrator.
	completer := llm.New(cfg.LLM)
	fetcher := tools.NewFetcher(mirror)
	registry := agent.NewRegistry(
		agent.NewPortfolioAnalyzer(completer, cfg.LLM.Model, fetcher),
		agent.NewYieldOptimizer(completer, cfg.LLM.Model, fetcher),
		agent.NewRiskScorer(completer, cfg.LLM.Model),
	)
	orch := orchestrator.New(completer, cfg.LLM.PlannerModel, registry)

	// Money movement services.
	rewardSvc := reward.NewService(ledgerClient, dataStore, cfg.Hedera.TokenID,
		cfg.Hedera.OperatorAccount, cfg.Hedera.ExplorerBase)
	splitSvc := payments.NewSplitService(ledgerClient, cfg.Hedera.TokenID,
		cfg.Hedera.OperatorAccount, cfg.Hedera.ExplorerBase)

	h := handlers.New(dataStore, registry, orch, gateway, rewardSvc, splitSvc, provider)
	router := api.NewRouter(cfg, h, gateway)

	janitor := retention.NewJanitor(dataStore, time.Hour, cfg.Retention.Days, cfg.Retention.Keep)
	go janitor.Start(ctx)

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}
