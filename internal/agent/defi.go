package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentfi/agentfi/internal/llm"
	"github.com/agentfi/agentfi/internal/tools"
)

// llmAgent is the common shape of the built-in DeFi agents: a system prompt,
// a market-data context builder, and one LLM call.
type llmAgent struct {
	name         string
	description  string
	pricePerCall float64
	system       string

	completer llm.Completer
	model     string
	context   func(ctx context.Context, query string) string
}

func (a *llmAgent) Name() string          { return a.name }
func (a *llmAgent) Description() string   { return a.description }
func (a *llmAgent) PricePerCall() float64 { return a.pricePerCall }

func (a *llmAgent) Execute(ctx context.Context, query string) (string, error) {
	user := query
	if a.context != nil {
		if data := a.context(ctx, query); data != "" {
			user = fmt.Sprintf("Market data:\n%s\n\nQuery: %s", data, query)
		}
	}

	result, err := a.completer.Complete(ctx, a.model, a.system, user)
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", a.name, err)
	}
	return result, nil
}

// NewPortfolioAnalyzer analyzes wallet portfolios against live prices.
func NewPortfolioAnalyzer(completer llm.Completer, model string, fetcher *tools.Fetcher) Agent {
	return &llmAgent{
		name:         "portfolio_analyzer",
		description:  "Analyzes wallet portfolios using live market data",
		pricePerCall: 0.5,
		system: "You are a DeFi portfolio analyzer. Given a portfolio or wallet " +
			"description and current market data, summarize allocation, notable " +
			"positions, and concentration. Be concise and factual.",
		completer: completer,
		model:     model,
		context: func(ctx context.Context, query string) string {
			prices := fetcher.TokenPrices(ctx, nil)
			var b strings.Builder
			for id, p := range prices {
				fmt.Fprintf(&b, "- %s: $%.4f (24h %+.2f%%)\n", id, p.USD, p.Change24h)
			}
			return b.String()
		},
	}
}

// NewYieldOptimizer recommends yield strategies from real protocol APYs.
func NewYieldOptimizer(completer llm.Completer, model string, fetcher *tools.Fetcher) Agent {
	return &llmAgent{
		name:         "yield_optimizer",
		description:  "Recommends optimal yield strategies using real protocol APYs",
		pricePerCall: 0.5,
		system: "You are a DeFi yield optimizer. Given live pool APYs and the " +
			"user's constraints, recommend 2-3 concrete strategies with protocol, " +
			"pool, APY, and risk notes.",
		completer: completer,
		model:     model,
		context: func(ctx context.Context, query string) string {
			pools := fetcher.Yields(ctx, 0)
			var b strings.Builder
			for _, p := range pools {
				tag := ""
				if p.Stable {
					tag = " [STABLE]"
				}
				fmt.Fprintf(&b, "- %s | %s | Chain: %s | APY: %.2f%% | TVL: $%.1fM%s\n",
					p.Protocol, p.Pool, p.Chain, p.APY, p.TVL/1e6, tag)
			}
			return b.String()
		},
	}
}

// NewRiskScorer scores portfolio or token risk on a 1-10 scale.
func NewRiskScorer(completer llm.Completer, model string) Agent {
	return &llmAgent{
		name:         "risk_scorer",
		description:  "Scores portfolio or token risk on a scale of 1-10",
		pricePerCall: 0.3,
		system: "You are a DeFi risk scorer. Given a portfolio description or " +
			"token, score the risk on a scale of 1-10 (1 = very safe, 10 = " +
			"extremely risky). Return the score and a brief explanation.",
		completer: completer,
		model:     model,
	}
}
