package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/agentfi/agentfi/internal/store"
	"github.com/agentfi/agentfi/pkg/models"
)

func newTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestListings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"portfolio_analyzer", "yield_optimizer", "risk_scorer"} {
		err := s.PutListing(ctx, &models.AgentListing{Name: name, PriceAFC: 1.0})
		if err != nil {
			t.Fatalf("PutListing(%s) error = %v", name, err)
		}
	}

	got, err := s.GetListing(ctx, "yield_optimizer")
	if err != nil {
		t.Fatalf("GetListing() error = %v", err)
	}
	if got.Name != "yield_optimizer" || got.PriceAFC != 1.0 {
		t.Errorf("GetListing() = %+v", got)
	}

	all, err := s.ListListings(ctx)
	if err != nil {
		t.Fatalf("ListListings() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(listings) = %d, want 3", len(all))
	}
	// Insertion order is preserved.
	if all[0].Name != "portfolio_analyzer" || all[2].Name != "risk_scorer" {
		t.Errorf("listing order = %v", []string{all[0].Name, all[1].Name, all[2].Name})
	}
}

func TestGetListing_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetListing(context.Background(), "ghost"); err == nil {
		t.Error("GetListing() error = nil, want not found")
	}
}

func TestPutListing_Updates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.PutListing(ctx, &models.AgentListing{Name: "risk_scorer", PriceAFC: 1.0})
	s.PutListing(ctx, &models.AgentListing{Name: "risk_scorer", PriceAFC: 2.5})

	got, _ := s.GetListing(ctx, "risk_scorer")
	if got.PriceAFC != 2.5 {
		t.Errorf("PriceAFC = %v, want 2.5 after update", got.PriceAFC)
	}
	all, _ := s.ListListings(ctx)
	if len(all) != 1 {
		t.Errorf("len(listings) = %d, want 1 after update", len(all))
	}
}

func TestPutListing_RequiresName(t *testing.T) {
	s := newTestStore(t)

	if err := s.PutListing(context.Background(), &models.AgentListing{}); err == nil {
		t.Error("PutListing() error = nil, want name required")
	}
}

func TestEarnings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.CreditEarnings(ctx, "risk_scorer", 1.0, false)
	s.CreditEarnings(ctx, "risk_scorer", 1.0, true)

	got, err := s.Earnings(ctx, "risk_scorer")
	if err != nil {
		t.Fatalf("Earnings() error = %v", err)
	}
	if got.TotalAFC != 2.0 {
		t.Errorf("TotalAFC = %v, want 2.0", got.TotalAFC)
	}
	if got.VirtualAFC != 1.0 {
		t.Errorf("VirtualAFC = %v, want 1.0", got.VirtualAFC)
	}
	if got.Executions != 2 {
		t.Errorf("Executions = %d, want 2", got.Executions)
	}
}

func TestEarnings_UnknownAgentIsZero(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Earnings(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Earnings() error = %v", err)
	}
	if got.Agent != "ghost" || got.TotalAFC != 0 || got.Executions != 0 {
		t.Errorf("Earnings() = %+v, want zero record", got)
	}
}

func TestExecutions_NewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := s.RecordExecution(ctx, &models.ExecutionRecord{
			ID:        fmt.Sprintf("exec-%d", i),
			Kind:      "single",
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("RecordExecution() error = %v", err)
		}
	}

	got, err := s.ListExecutions(ctx, 3)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len() = %d, want 3", len(got))
	}
	if got[0].ID != "exec-4" || got[2].ID != "exec-2" {
		t.Errorf("order = %v, want newest first", []string{got[0].ID, got[1].ID, got[2].ID})
	}

	all, _ := s.ListExecutions(ctx, 0)
	if len(all) != 5 {
		t.Errorf("ListExecutions(0) len = %d, want all 5", len(all))
	}
}
