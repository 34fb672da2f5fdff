package payments_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/agentfi/agentfi/internal/payments"
	"github.com/agentfi/agentfi/pkg/models"
)

// fakeLedger records transfers and fails for recipients in failTo.
type fakeLedger struct {
	transfers []transfer
	failTo    map[string]bool
}

type transfer struct {
	to     string
	amount int64
}

func (f *fakeLedger) TransferToken(ctx context.Context, tokenID, from, to string, amount int64) (string, error) {
	f.transfers = append(f.transfers, transfer{to: to, amount: amount})
	if f.failTo[to] {
		return "", fmt.Errorf("INSUFFICIENT_TOKEN_BALANCE")
	}
	return fmt.Sprintf("0.0.1001@%d", len(f.transfers)), nil
}

func TestShares(t *testing.T) {
	tests := []struct {
		total                  float64
		owner, agent, platform float64
	}{
		{10.00, 7.00, 2.00, 1.00},
		{1.00, 0.70, 0.20, 0.10},
		{0.01, 0.01, 0.00, 0.00},
		// 10.01: legs round to 7.01/2.00/1.00, remainder 0 after fold.
		{10.01, 7.01, 2.00, 1.00},
		// 0.05: legs round up to 0.04/0.01/0.01; the negative remainder
		// is subtracted from the owner share.
		{0.05, 0.03, 0.01, 0.01},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.total), func(t *testing.T) {
			owner, agent, platform := payments.Shares(tt.total)
			if owner != tt.owner || agent != tt.agent || platform != tt.platform {
				t.Errorf("Shares(%v) = %v/%v/%v, want %v/%v/%v",
					tt.total, owner, agent, platform, tt.owner, tt.agent, tt.platform)
			}
			if got := owner + agent + platform; math.Abs(got-tt.total) > 1e-9 {
				t.Errorf("shares sum to %v, want %v", got, tt.total)
			}
		})
	}
}

func TestSplit_AllLegsSucceed(t *testing.T) {
	ledger := &fakeLedger{}
	svc := payments.NewSplitService(ledger, "0.0.5000", "0.0.9999", "https://hashscan.io/testnet")

	result := svc.Split(context.Background(), 10.00, "0.0.1", "0.0.2", "0.0.3")

	if !result.Success {
		t.Fatal("Success = false, want true")
	}
	if result.TotalAmount != "10.00 AFC" {
		t.Errorf("TotalAmount = %q, want %q", result.TotalAmount, "10.00 AFC")
	}
	if len(ledger.transfers) != 3 {
		t.Fatalf("len(transfers) = %d, want 3", len(ledger.transfers))
	}

	wantMinor := map[string]int64{"0.0.2": 700, "0.0.3": 200, "0.0.9999": 100}
	for _, tr := range ledger.transfers {
		if tr.amount != wantMinor[tr.to] {
			t.Errorf("transfer to %s = %d minor units, want %d", tr.to, tr.amount, wantMinor[tr.to])
		}
	}

	owner := result.Legs[models.LegOwner]
	if owner.Status != models.TransferSuccess {
		t.Errorf("owner leg status = %q, want success", owner.Status)
	}
	if owner.ExplorerURL == "" {
		t.Error("owner leg has no explorer URL")
	}
}

func TestSplit_PlatformLegFailureTolerated(t *testing.T) {
	ledger := &fakeLedger{failTo: map[string]bool{"0.0.9999": true}}
	svc := payments.NewSplitService(ledger, "0.0.5000", "0.0.9999", "")

	result := svc.Split(context.Background(), 10.00, "0.0.1", "0.0.2", "0.0.3")

	if !result.Success {
		t.Error("Success = false, want true: only the owner leg decides")
	}
	platform := result.Legs[models.LegPlatform]
	if platform.Status != models.TransferFailed {
		t.Errorf("platform leg status = %q, want failed", platform.Status)
	}
	if platform.Error == "" {
		t.Error("platform leg has no error message")
	}
	// All three legs are still attempted.
	if len(ledger.transfers) != 3 {
		t.Errorf("len(transfers) = %d, want 3", len(ledger.transfers))
	}
}

func TestSplit_OwnerLegFailureFailsSplit(t *testing.T) {
	ledger := &fakeLedger{failTo: map[string]bool{"0.0.2": true}}
	svc := payments.NewSplitService(ledger, "0.0.5000", "0.0.9999", "")

	result := svc.Split(context.Background(), 10.00, "0.0.1", "0.0.2", "0.0.3")

	if result.Success {
		t.Error("Success = true, want false when the owner leg fails")
	}
	// The remaining legs still run.
	if result.Legs[models.LegAgent].Status != models.TransferSuccess {
		t.Errorf("agent leg status = %q, want success", result.Legs[models.LegAgent].Status)
	}
}
