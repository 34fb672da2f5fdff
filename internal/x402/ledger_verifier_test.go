package x402_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/agentfi/agentfi/internal/ledger"
	"github.com/agentfi/agentfi/internal/x402"
	"github.com/agentfi/agentfi/pkg/models"
)

// fakeMirror serves canned transactions by id.
type fakeMirror struct {
	txs map[string]*ledger.Transaction
}

func (f *fakeMirror) Transaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	tx, ok := f.txs[id]
	if !ok {
		return nil, fmt.Errorf("no transaction found for %s", id)
	}
	return tx, nil
}

func testListing() *models.AgentListing {
	return &models.AgentListing{
		Name:         "portfolio_analyzer",
		PriceAFC:     1.0,
		AgentAccount: "0.0.2222",
		X402Enabled:  true,
	}
}

func TestLedgerVerify(t *testing.T) {
	mirror := &fakeMirror{txs: map[string]*ledger.Transaction{
		"0.0.1111-1700000000-000000001": {
			Result: "SUCCESS",
			TokenTransfers: []ledger.TokenTransfer{
				{TokenID: "0.0.5000", Account: "0.0.1111", Amount: -100},
				{TokenID: "0.0.5000", Account: "0.0.2222", Amount: 100},
			},
		},
	}}
	v := x402.NewLedgerVerifier(mirror, "0.0.5000")

	cred := &models.PaymentCredential{TransactionID: "0.0.1111-1700000000-000000001"}
	amount, ok := v.Verify(context.Background(), cred, testListing())
	if !ok {
		t.Fatal("Verify() = false, want true")
	}
	if amount != "100" {
		t.Errorf("amount = %q, want %q", amount, "100")
	}
}

func TestLedgerVerify_NormalizesAtSign(t *testing.T) {
	mirror := &fakeMirror{txs: map[string]*ledger.Transaction{
		"0.0.1111-1700000000-000000001": {
			Result: "SUCCESS",
			TokenTransfers: []ledger.TokenTransfer{
				{TokenID: "0.0.5000", Account: "0.0.2222", Amount: 100},
			},
		},
	}}
	v := x402.NewLedgerVerifier(mirror, "0.0.5000")

	// SDK-style id with @ is normalized to the mirror node format.
	cred := &models.PaymentCredential{TxHash: "0.0.1111@1700000000-000000001"}
	if _, ok := v.Verify(context.Background(), cred, testListing()); !ok {
		t.Error("Verify() = false, want true for @-separated id")
	}
}

func TestLedgerVerify_Rejections(t *testing.T) {
	listing := testListing()
	tests := []struct {
		name string
		cred models.PaymentCredential
		tx   *ledger.Transaction
	}{
		{
			name: "missing reference",
			cred: models.PaymentCredential{},
		},
		{
			name: "transaction not found",
			cred: models.PaymentCredential{TransactionID: "0.0.1-2-3"},
		},
		{
			name: "failed transaction",
			cred: models.PaymentCredential{TransactionID: "0.0.1-2-3"},
			tx: &ledger.Transaction{Result: "INSUFFICIENT_TOKEN_BALANCE",
				TokenTransfers: []ledger.TokenTransfer{{TokenID: "0.0.5000", Account: "0.0.2222", Amount: 100}}},
		},
		{
			name: "wrong token",
			cred: models.PaymentCredential{TransactionID: "0.0.1-2-3"},
			tx: &ledger.Transaction{Result: "SUCCESS",
				TokenTransfers: []ledger.TokenTransfer{{TokenID: "0.0.7777", Account: "0.0.2222", Amount: 100}}},
		},
		{
			name: "wrong recipient",
			cred: models.PaymentCredential{TransactionID: "0.0.1-2-3"},
			tx: &ledger.Transaction{Result: "SUCCESS",
				TokenTransfers: []ledger.TokenTransfer{{TokenID: "0.0.5000", Account: "0.0.3333", Amount: 100}}},
		},
		{
			name: "amount too small",
			cred: models.PaymentCredential{TransactionID: "0.0.1-2-3"},
			tx: &ledger.Transaction{Result: "SUCCESS",
				TokenTransfers: []ledger.TokenTransfer{{TokenID: "0.0.5000", Account: "0.0.2222", Amount: 99}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mirror := &fakeMirror{txs: map[string]*ledger.Transaction{}}
			if tt.tx != nil {
				mirror.txs["0.0.1-2-3"] = tt.tx
			}
			v := x402.NewLedgerVerifier(mirror, "0.0.5000")

			if _, ok := v.Verify(context.Background(), &tt.cred, listing); ok {
				t.Error("Verify() = true, want false")
			}
		})
	}
}

func TestLedgerVerify_Overpayment(t *testing.T) {
	mirror := &fakeMirror{txs: map[string]*ledger.Transaction{
		"0.0.1-2-3": {
			Result: "SUCCESS",
			TokenTransfers: []ledger.TokenTransfer{
				{TokenID: "0.0.5000", Account: "0.0.2222", Amount: 250},
			},
		},
	}}
	v := x402.NewLedgerVerifier(mirror, "0.0.5000")

	cred := &models.PaymentCredential{TransactionID: "0.0.1-2-3"}
	amount, ok := v.Verify(context.Background(), cred, testListing())
	if !ok {
		t.Fatal("Verify() = false, want true for overpayment")
	}
	if amount != "250" {
		t.Errorf("amount = %q, want %q", amount, "250")
	}
}
