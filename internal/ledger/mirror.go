package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MirrorClient reads transactions, accounts, and token balances from a
// Hedera mirror node. All methods are read-only and carry a bounded timeout.
type MirrorClient struct {
	baseURL string
	client  *http.Client
}

// NewMirrorClient creates a mirror node client for the given base URL,
// e.g. "https://testnet.mirrornode.hedera.com".
func NewMirrorClient(baseURL string) *MirrorClient {
	return &MirrorClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TokenTransfer is one token movement inside a mirror transaction record.
// Amount is in the token's minor units; negative for the debited account.
type TokenTransfer struct {
	TokenID string `json:"token_id"`
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// Transaction is the subset of the mirror transaction record the gateway
// needs for payment verification.
type Transaction struct {
	TransactionID  string          `json:"transaction_id"`
	Result         string          `json:"result"`
	TokenTransfers []TokenTransfer `json:"token_transfers"`
}

// Account is the subset of the mirror account record used by the balance
// tools.
type Account struct {
	AccountID string `json:"account"`
	Balance   struct {
		Balance int64 `json:"balance"`
	} `json:"balance"`
}

// TokenBalance is one entry of an account's token holdings.
type TokenBalance struct {
	TokenID string `json:"token_id"`
	Balance int64  `json:"balance"`
}

// Transaction fetches a transaction by id. Returns an error when the lookup
// fails or no matching transaction exists; callers treat both as "no valid
// payment found".
func (m *MirrorClient) Transaction(ctx context.Context, id string) (*Transaction, error) {
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := m.get(ctx, "/api/v1/transactions/"+url.PathEscape(id), &body); err != nil {
		return nil, err
	}
	if len(body.Transactions) == 0 {
		return nil, fmt.Errorf("no transaction found for %s", id)
	}
	return &body.Transactions[0], nil
}

// Account fetches an account record by id.
func (m *MirrorClient) Account(ctx context.Context, id string) (*Account, error) {
	var acct Account
	if err := m.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// AccountTokens fetches an account's token balances.
func (m *MirrorClient) AccountTokens(ctx context.Context, id string) ([]TokenBalance, error) {
	var body struct {
		Tokens []TokenBalance `json:"tokens"`
	}
	if err := m.get(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/tokens", &body); err != nil {
		return nil, err
	}
	return body.Tokens, nil
}

func (m *MirrorClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", m.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("mirror: create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mirror: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mirror: status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mirror: decode response: %w", err)
	}
	return nil
}
