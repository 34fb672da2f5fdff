// Package ledger wraps the distributed ledger: token transfers through the
// Hedera SDK, and read-only lookups through the public mirror node API.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog/log"
)

// Client performs token transfers. Implementations must be safe for
// concurrent use.
type Client interface {
	// TransferToken moves amount minor units of tokenID from one account to
	// another and returns the transaction id.
	TransferToken(ctx context.Context, tokenID, from, to string, amount int64) (string, error)
}

// ── Hedera SDK Client ───────────────────────────────────────

// HederaClient executes transfers with the operator's key on Hedera.
type HederaClient struct {
	client *hedera.Client
}

// NewHederaClient connects to the named Hedera network ("hedera-testnet" or
// "hedera-mainnet") as the given operator.
func NewHederaClient(network, operatorAccount, operatorKey string) (*HederaClient, error) {
	accountID, err := hedera.AccountIDFromString(operatorAccount)
	if err != nil {
		return nil, fmt.Errorf("parse operator account: %w", err)
	}
	privateKey, err := hedera.PrivateKeyFromString(operatorKey)
	if err != nil {
		return nil, fmt.Errorf("parse operator key: %w", err)
	}

	var client *hedera.Client
	switch network {
	case "hedera-mainnet":
		client = hedera.ClientForMainnet()
	default:
		client = hedera.ClientForTestnet()
	}
	client.SetOperator(accountID, privateKey)

	return &HederaClient{client: client}, nil
}

// TransferToken submits a token transfer and waits for its receipt.
func (c *HederaClient) TransferToken(ctx context.Context, tokenID, from, to string, amount int64) (string, error) {
	tid, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return "", fmt.Errorf("parse token id %q: %w", tokenID, err)
	}
	fromID, err := hedera.AccountIDFromString(from)
	if err != nil {
		return "", fmt.Errorf("parse sender %q: %w", from, err)
	}
	toID, err := hedera.AccountIDFromString(to)
	if err != nil {
		return "", fmt.Errorf("parse recipient %q: %w", to, err)
	}

	resp, err := hedera.NewTransferTransaction().
		AddTokenTransfer(tid, fromID, -amount).
		AddTokenTransfer(tid, toID, amount).
		Execute(c.client)
	if err != nil {
		return "", fmt.Errorf("execute transfer: %w", err)
	}

	receipt, err := resp.GetReceipt(c.client)
	if err != nil {
		return "", fmt.Errorf("transfer receipt: %w", err)
	}
	if receipt.Status != hedera.StatusSuccess {
		return "", fmt.Errorf("transfer not successful: %s", receipt.Status)
	}

	return resp.TransactionID.String(), nil
}

// Close releases the network connections held by the client.
func (c *HederaClient) Close() {
	_ = c.client.Close()
}

// ── Mock Client ─────────────────────────────────────────────

// MockClient logs transfers without executing them. Used in mock mode and
// in tests.
type MockClient struct{}

// TransferToken records the would-be transfer and returns a synthetic id.
func (MockClient) TransferToken(ctx context.Context, tokenID, from, to string, amount int64) (string, error) {
	txID := "mock-" + uuid.New().String()
	log.Info().
		Str("token", tokenID).
		Str("from", from).
		Str("to", to).
		Int64("amount", amount).
		Str("tx", txID).
		Msg("mock token transfer")
	return txID, nil
}
