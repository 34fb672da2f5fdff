package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentfi/agentfi/pkg/models"
)

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu         sync.RWMutex
	listings   map[string]models.AgentListing
	order      []string
	earnings   map[string]models.Earnings
	executions []models.ExecutionRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]models.AgentListing),
		earnings: make(map[string]models.Earnings),
	}
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// ── Listings ────────────────────────────────────────────────

func (s *MemoryStore) ListListings(ctx context.Context) ([]models.AgentListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AgentListing, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.listings[name])
	}
	return out, nil
}

func (s *MemoryStore) GetListing(ctx context.Context, name string) (*models.AgentListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[name]
	if !ok {
		return nil, fmt.Errorf("listing %q not found", name)
	}
	return &listing, nil
}

func (s *MemoryStore) PutListing(ctx context.Context, listing *models.AgentListing) error {
	if listing.Name == "" {
		return fmt.Errorf("listing name required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.Name]; !ok {
		s.order = append(s.order, listing.Name)
	}
	s.listings[listing.Name] = *listing
	return nil
}

// ── Earnings ────────────────────────────────────────────────

func (s *MemoryStore) CreditEarnings(ctx context.Context, agent string, amountAFC float64, virtual bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.earnings[agent]
	e.Agent = agent
	e.TotalAFC += amountAFC
	if virtual {
		e.VirtualAFC += amountAFC
	}
	e.Executions++
	s.earnings[agent] = e
	return nil
}

func (s *MemoryStore) Earnings(ctx context.Context, agent string) (*models.Earnings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.earnings[agent]
	if !ok {
		return &models.Earnings{Agent: agent}, nil
	}
	return &e, nil
}

// ── Executions ──────────────────────────────────────────────

func (s *MemoryStore) RecordExecution(ctx context.Context, rec *models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions = append(s.executions, *rec)
	return nil
}

func (s *MemoryStore) PruneExecutions(ctx context.Context, cutoff time.Time, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	protected := len(s.executions) - keep
	if protected <= 0 {
		return 0, nil
	}

	// Records are appended in time order; find the first one to retain.
	idx := 0
	for idx < protected && s.executions[idx].CreatedAt.Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return 0, nil
	}
	s.executions = append([]models.ExecutionRecord(nil), s.executions[idx:]...)
	return idx, nil
}

func (s *MemoryStore) ListExecutions(ctx context.Context, limit int) ([]models.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.executions) {
		limit = len(s.executions)
	}
	// Newest first
	out := make([]models.ExecutionRecord, 0, limit)
	for i := len(s.executions) - 1; i >= len(s.executions)-limit; i-- {
		out = append(out, s.executions[i])
	}
	return out, nil
}
