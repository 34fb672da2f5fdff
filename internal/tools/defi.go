// Package tools fetches the market data the DeFi agents reason over:
// token prices (CoinGecko), pool yields (DeFi Llama), and ledger account
// balances (mirror node). Every fetcher degrades to a documented fallback
// record instead of failing the request.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/ledger"
)

// Fetcher bundles the market data sources.
type Fetcher struct {
	client        *http.Client
	coingeckoBase string
	llamaBase     string
	mirror        *ledger.MirrorClient
}

// Option overrides a Fetcher endpoint, mainly for tests.
type Option func(*Fetcher)

func WithCoinGeckoBase(base string) Option { return func(f *Fetcher) { f.coingeckoBase = base } }
func WithLlamaBase(base string) Option     { return func(f *Fetcher) { f.llamaBase = base } }

// NewFetcher creates a Fetcher backed by the public data APIs.
func NewFetcher(mirror *ledger.MirrorClient, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:        &http.Client{Timeout: 15 * time.Second},
		coingeckoBase: "https://api.coingecko.com",
		llamaBase:     "https://yields.llama.fi",
		mirror:        mirror,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ── Prices ──────────────────────────────────────────────────

// TokenPrice is one CoinGecko price record.
type TokenPrice struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
	MarketCap float64 `json:"usd_market_cap"`
}

// fallbackPrices is returned when CoinGecko is unreachable so the agents
// still have numbers to reason with.
var fallbackPrices = map[string]TokenPrice{
	"ethereum":         {USD: 1950, Change24h: -0.5},
	"bitcoin":          {USD: 67000, Change24h: 1.2},
	"hedera-hashgraph": {USD: 0.098, Change24h: -1.0},
	"usd-coin":         {USD: 1.0, Change24h: 0.0},
}

// TokenPrices fetches USD prices for the given CoinGecko ids. On any failure
// it returns the static fallback table and logs the error.
func (f *Fetcher) TokenPrices(ctx context.Context, ids []string) map[string]TokenPrice {
	if len(ids) == 0 {
		ids = []string{"ethereum", "bitcoin", "usd-coin", "hedera-hashgraph", "tether"}
	}

	u := fmt.Sprintf(
		"%s/api/v3/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_market_cap=true",
		f.coingeckoBase, url.QueryEscape(strings.Join(ids, ",")),
	)

	var prices map[string]TokenPrice
	if err := f.getJSON(ctx, u, &prices); err != nil {
		log.Warn().Err(err).Msg("price fetch failed, using fallback")
		return fallbackPrices
	}
	return prices
}

// ── Yields ──────────────────────────────────────────────────

// PoolYield is one DeFi Llama pool record.
type PoolYield struct {
	Protocol string  `json:"project"`
	Pool     string  `json:"symbol"`
	Chain    string  `json:"chain"`
	APY      float64 `json:"apy"`
	TVL      float64 `json:"tvlUsd"`
	Stable   bool    `json:"stablecoin"`
}

var fallbackYields = []PoolYield{
	{Protocol: "aave-v3", Pool: "USDC", Chain: "Ethereum", APY: 3.8, TVL: 450_000_000, Stable: true},
	{Protocol: "lido", Pool: "STETH", Chain: "Ethereum", APY: 3.1, TVL: 14_000_000_000},
	{Protocol: "compound-v3", Pool: "USDT", Chain: "Ethereum", APY: 4.2, TVL: 230_000_000, Stable: true},
}

// Yields fetches pools above minTVL, sorted by APY descending, capped at 15
// entries. Falls back to a static snapshot on failure.
func (f *Fetcher) Yields(ctx context.Context, minTVL float64) []PoolYield {
	if minTVL <= 0 {
		minTVL = 500_000
	}

	var body struct {
		Data []PoolYield `json:"data"`
	}
	if err := f.getJSON(ctx, f.llamaBase+"/pools", &body); err != nil {
		log.Warn().Err(err).Msg("yield fetch failed, using fallback")
		return fallbackYields
	}

	pools := body.Data[:0]
	for _, p := range body.Data {
		if p.TVL >= minTVL {
			pools = append(pools, p)
		}
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].APY > pools[j].APY })
	if len(pools) > 15 {
		pools = pools[:15]
	}
	if len(pools) == 0 {
		return fallbackYields
	}
	return pools
}

// ── Balances ────────────────────────────────────────────────

// AccountBalance is a ledger account's holdings.
type AccountBalance struct {
	AccountID   string                `json:"account_id"`
	HbarBalance float64               `json:"hbar_balance"`
	Tokens      []ledger.TokenBalance `json:"tokens"`
	Err         string                `json:"error,omitempty"`
}

// AccountBalance fetches HBAR and token balances from the mirror node.
// Lookup failures are recorded on the result, never returned as an error.
func (f *Fetcher) AccountBalance(ctx context.Context, accountID string) AccountBalance {
	result := AccountBalance{AccountID: accountID}

	acct, err := f.mirror.Account(ctx, accountID)
	if err != nil {
		log.Warn().Err(err).Str("account", accountID).Msg("balance fetch failed")
		result.Err = err.Error()
		return result
	}
	result.HbarBalance = float64(acct.Balance.Balance) / 1e8

	tokens, err := f.mirror.AccountTokens(ctx, accountID)
	if err == nil {
		if len(tokens) > 10 {
			tokens = tokens[:10]
		}
		result.Tokens = tokens
	}
	return result
}

func (f *Fetcher) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
