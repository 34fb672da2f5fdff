package ledger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentfi/agentfi/internal/ledger"
)

func TestMirrorTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/transactions/0.0.1111-1700000000-000000001" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"transactions": [{
				"transaction_id": "0.0.1111-1700000000-000000001",
				"result": "SUCCESS",
				"token_transfers": [
					{"token_id": "0.0.5000", "account": "0.0.1111", "amount": -100},
					{"token_id": "0.0.5000", "account": "0.0.2222", "amount": 100}
				]
			}]
		}`))
	}))
	defer srv.Close()

	m := ledger.NewMirrorClient(srv.URL)
	tx, err := m.Transaction(context.Background(), "0.0.1111-1700000000-000000001")
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	if tx.Result != "SUCCESS" {
		t.Errorf("Result = %q, want SUCCESS", tx.Result)
	}
	if len(tx.TokenTransfers) != 2 {
		t.Fatalf("len(TokenTransfers) = %d, want 2", len(tx.TokenTransfers))
	}
	if tx.TokenTransfers[1].Account != "0.0.2222" || tx.TokenTransfers[1].Amount != 100 {
		t.Errorf("transfer[1] = %+v", tx.TokenTransfers[1])
	}
}

func TestMirrorTransaction_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transactions": []}`))
	}))
	defer srv.Close()

	m := ledger.NewMirrorClient(srv.URL)
	if _, err := m.Transaction(context.Background(), "0.0.1-2-3"); err == nil {
		t.Error("Transaction() error = nil, want no-transaction error")
	}
}

func TestMirrorTransaction_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"_status":{"messages":[{"message":"Not found"}]}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	m := ledger.NewMirrorClient(srv.URL)
	if _, err := m.Transaction(context.Background(), "0.0.1-2-3"); err == nil {
		t.Error("Transaction() error = nil, want status error")
	}
}

func TestMirrorAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/0.0.2222" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"account": "0.0.2222", "balance": {"balance": 500000000}}`))
	}))
	defer srv.Close()

	m := ledger.NewMirrorClient(srv.URL)
	acct, err := m.Account(context.Background(), "0.0.2222")
	if err != nil {
		t.Fatalf("Account() error = %v", err)
	}
	if acct.AccountID != "0.0.2222" || acct.Balance.Balance != 500000000 {
		t.Errorf("Account() = %+v", acct)
	}
}

func TestMirrorAccountTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tokens": [{"token_id": "0.0.5000", "balance": 1200}]}`))
	}))
	defer srv.Close()

	m := ledger.NewMirrorClient(srv.URL)
	tokens, err := m.AccountTokens(context.Background(), "0.0.2222")
	if err != nil {
		t.Fatalf("AccountTokens() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0].Balance != 1200 {
		t.Errorf("AccountTokens() = %+v", tokens)
	}
}
