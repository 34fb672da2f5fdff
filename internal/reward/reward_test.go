package reward_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/agentfi/agentfi/internal/reward"
	"github.com/agentfi/agentfi/internal/store"
	"github.com/agentfi/agentfi/pkg/models"
)

// fakeLedger counts transfers and optionally fails them all.
type fakeLedger struct {
	calls int
	fail  bool
}

func (f *fakeLedger) TransferToken(ctx context.Context, tokenID, from, to string, amount int64) (string, error) {
	f.calls++
	if f.fail {
		return "", fmt.Errorf("TOKEN_NOT_ASSOCIATED_TO_ACCOUNT")
	}
	return "0.0.1000@1700000000.000000001", nil
}

func newRewardFixture(t *testing.T, agentAccount string) (*fakeLedger, *store.MemoryStore, func(string) *reward.Service) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })

	err := s.PutListing(context.Background(), &models.AgentListing{
		Name:         "risk_scorer",
		PriceAFC:     1.0,
		AgentAccount: agentAccount,
	})
	if err != nil {
		t.Fatalf("PutListing: %v", err)
	}

	ledger := &fakeLedger{}
	build := func(operator string) *reward.Service {
		return reward.NewService(ledger, s, "0.0.5000", operator, "https://hashscan.io/testnet")
	}
	return ledger, s, build
}

func TestReward_Transfer(t *testing.T) {
	ledger, s, build := newRewardFixture(t, "0.0.2222")
	svc := build("0.0.1000")

	proof := svc.Reward(context.Background(), "risk_scorer")

	if proof.Status != "SUCCESS" {
		t.Errorf("Status = %q, want SUCCESS", proof.Status)
	}
	if proof.Amount != "1.00 AFC" {
		t.Errorf("Amount = %q, want 1.00 AFC", proof.Amount)
	}
	if proof.Recipient != "0.0.2222" {
		t.Errorf("Recipient = %q, want agent account", proof.Recipient)
	}
	if proof.ExplorerURL != "https://hashscan.io/testnet/account/0.0.2222" {
		t.Errorf("ExplorerURL = %q", proof.ExplorerURL)
	}
	if ledger.calls != 1 {
		t.Errorf("transfer calls = %d, want 1", ledger.calls)
	}

	earnings, err := s.Earnings(context.Background(), "risk_scorer")
	if err != nil {
		t.Fatalf("Earnings: %v", err)
	}
	if earnings.TotalAFC != 1.0 || earnings.VirtualAFC != 0 {
		t.Errorf("earnings = %+v, want 1.0 total, 0 virtual", earnings)
	}
}

func TestReward_SharedAccountIsVirtual(t *testing.T) {
	ledger, s, build := newRewardFixture(t, "0.0.1000")
	svc := build("0.0.1000") // agent shares the operator account

	proof := svc.Reward(context.Background(), "risk_scorer")

	if proof.Status != "SUCCESS" {
		t.Errorf("Status = %q, want SUCCESS", proof.Status)
	}
	if ledger.calls != 0 {
		t.Errorf("transfer calls = %d, want 0 for shared account", ledger.calls)
	}

	earnings, _ := s.Earnings(context.Background(), "risk_scorer")
	if earnings.VirtualAFC != 1.0 {
		t.Errorf("VirtualAFC = %v, want 1.0", earnings.VirtualAFC)
	}
}

func TestReward_TransferFailureYieldsSyntheticProof(t *testing.T) {
	ledger, s, build := newRewardFixture(t, "0.0.2222")
	ledger.fail = true
	svc := build("0.0.1000")

	proof := svc.Reward(context.Background(), "risk_scorer")

	if !strings.HasPrefix(proof.Status, "mock-") {
		t.Errorf("Status = %q, want mock- prefix", proof.Status)
	}
	if len(proof.Status) != len("mock-")+12 {
		t.Errorf("Status = %q, want 12-char hash suffix", proof.Status)
	}

	// Failed transfers are not credited.
	earnings, _ := s.Earnings(context.Background(), "risk_scorer")
	if earnings.TotalAFC != 0 {
		t.Errorf("TotalAFC = %v, want 0 after failed transfer", earnings.TotalAFC)
	}
}

func TestReward_SkippedWhenUnconfigured(t *testing.T) {
	tests := []struct {
		name     string
		tokenID  string
		operator string
		agent    string
	}{
		{"no token", "", "0.0.1000", "risk_scorer"},
		{"no operator", "0.0.5000", "", "risk_scorer"},
		{"unknown agent", "0.0.5000", "0.0.1000", "ghost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			defer s.Close()
			s.PutListing(context.Background(), &models.AgentListing{
				Name: "risk_scorer", AgentAccount: "0.0.2222",
			})
			ledger := &fakeLedger{}
			svc := reward.NewService(ledger, s, tt.tokenID, tt.operator, "")

			proof := svc.Reward(context.Background(), tt.agent)
			if proof.Status != "" {
				t.Errorf("Status = %q, want empty for skipped reward", proof.Status)
			}
			if ledger.calls != 0 {
				t.Errorf("transfer calls = %d, want 0", ledger.calls)
			}
		})
	}
}
