package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/agentfi/agentfi/pkg/models"
)

// Config holds all configuration for the AgentFi gateway.
type Config struct {
	Port    int
	Version string

	// Mode selects the payment backends: "live" uses the Hedera SDK and the
	// real facilitator, "mock" logs transfers without touching any ledger.
	Mode string

	LLM       LLMConfig
	Hedera    HederaConfig
	X402      X402Config
	Authz     AuthzConfig
	Telemetry TelemetryConfig

	// ListingsPath optionally points at a YAML agent listings manifest.
	ListingsPath string

	Retention RetentionConfig
}

type RetentionConfig struct {
	// Days is how long execution records are kept; Keep is the floor of
	// records never pruned regardless of age.
	Days int
	Keep int
}

type LLMConfig struct {
	// Kind is "openai" (default, any OpenAI-compatible endpoint) or "anthropic".
	Kind     string
	Endpoint string
	APIKey   string
	// Model runs the agents; PlannerModel builds execution plans.
	Model        string
	PlannerModel string
}

type HederaConfig struct {
	Network         string
	OperatorAccount string
	OperatorKey     string
	// TokenID is the AFC token used for rewards, splits, and the
	// ledger-native payment rail.
	TokenID   string
	MirrorURL string
	// ExplorerBase prefixes hashscan links in transfer outcomes.
	ExplorerBase string
}

type X402Config struct {
	FacilitatorURL string
	// KiteWallet receives facilitator-rail payments.
	KiteWallet string
	// USDTAsset is the token contract address on the facilitator chain.
	USDTAsset string
	ChainID   int64
}

type AuthzConfig struct {
	// RPCURL and Contract locate the AgentNFT authorization contract.
	// Empty RPCURL disables the on-chain authorization rule.
	RPCURL   string
	Contract string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("AGENTFI_PORT", 8080),
		Version: envStr("AGENTFI_VERSION", "0.1.0"),
		Mode:    envStr("AGENTFI_MODE", "mock"),
		LLM: LLMConfig{
			Kind:         envStr("LLM_KIND", "openai"),
			Endpoint:     envStr("LLM_ENDPOINT", ""),
			APIKey:       envStr("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:        envStr("LLM_MODEL", "gpt-4o-mini"),
			PlannerModel: envStr("LLM_PLANNER_MODEL", "gpt-4o-mini"),
		},
		Hedera: HederaConfig{
			Network:         envStr("HEDERA_NETWORK", "hedera-testnet"),
			OperatorAccount: envStr("HEDERA_ACCOUNT_ID", ""),
			OperatorKey:     envStr("HEDERA_PRIVATE_KEY", ""),
			TokenID:         envStr("HEDERA_TOKEN_ID", ""),
			MirrorURL:       envStr("HEDERA_MIRROR_NODE", "https://testnet.mirrornode.hedera.com"),
			ExplorerBase:    envStr("HEDERA_EXPLORER_BASE", "https://hashscan.io/testnet"),
		},
		X402: X402Config{
			FacilitatorURL: envStr("X402_FACILITATOR_URL", "https://facilitator.pieverse.io"),
			KiteWallet:     envStr("KITE_WALLET_ADDRESS", ""),
			USDTAsset:      envStr("KITEAI_USDT_ADDRESS", ""),
			ChainID:        envInt64("KITEAI_CHAIN_ID", 2368),
		},
		Authz: AuthzConfig{
			RPCURL:   envStr("AGENTNFT_RPC_URL", ""),
			Contract: envStr("AGENTNFT_CONTRACT", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "agentfi-gateway"),
		},
		ListingsPath: envStr("AGENTFI_LISTINGS", ""),
		Retention: RetentionConfig{
			Days: envInt("AGENTFI_RETENTION_DAYS", 7),
			Keep: envInt("AGENTFI_RETENTION_KEEP", 1000),
		},
	}
}

// LoadListings reads the agent listings manifest. With an empty path the
// built-in defaults for the three core agents are returned.
func LoadListings(path string) ([]models.AgentListing, error) {
	if path == "" {
		return DefaultListings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listings manifest: %w", err)
	}

	var manifest struct {
		Agents []models.AgentListing `yaml:"agents"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse listings manifest: %w", err)
	}
	if len(manifest.Agents) == 0 {
		return nil, fmt.Errorf("listings manifest %s has no agents", path)
	}
	return manifest.Agents, nil
}

// DefaultListings returns listings for the built-in DeFi agents. Accounts
// come from the environment so the same binary serves any deployment.
func DefaultListings() []models.AgentListing {
	operator := envStr("HEDERA_ACCOUNT_ID", "")
	return []models.AgentListing{
		{
			Name:         "portfolio_analyzer",
			Description:  "Analyzes wallet portfolios using live market data",
			PriceAFC:     1.0,
			PriceUSDT:    0.01,
			AgentAccount: envStr("HEDERA_PORTFOLIO_ANALYZER_ACCOUNT", operator),
			OwnerAccount: operator,
			NFTTokenID:   1,
			X402Enabled:  true,
		},
		{
			Name:         "yield_optimizer",
			Description:  "Recommends optimal yield strategies using real protocol APYs",
			PriceAFC:     1.0,
			PriceUSDT:    0.01,
			AgentAccount: envStr("HEDERA_YIELD_OPTIMIZER_ACCOUNT", operator),
			OwnerAccount: operator,
			NFTTokenID:   2,
			X402Enabled:  true,
		},
		{
			Name:         "risk_scorer",
			Description:  "Scores portfolio or token risk on a scale of 1-10",
			PriceAFC:     1.0,
			PriceUSDT:    0.01,
			AgentAccount: envStr("HEDERA_RISK_SCORER_ACCOUNT", operator),
			OwnerAccount: operator,
			NFTTokenID:   3,
			X402Enabled:  true,
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
