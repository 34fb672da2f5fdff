// Package store provides the registry storage for the AgentFi gateway:
// agent listings, reward bookkeeping, and execution records.
package store

import (
	"context"
	"time"

	"github.com/agentfi/agentfi/pkg/models"
)

// Store is the storage interface the gateway and handlers depend on.
// The in-memory implementation serves single-node deployments and tests.
type Store interface {
	ListingStore
	EarningsStore
	ExecutionStore

	// Close releases all resources held by the store.
	Close() error
}

// ── Listing Store ───────────────────────────────────────────

// ListingStore holds the payment-side registry entries. Listings are loaded
// once at startup and read for every gated request.
type ListingStore interface {
	ListListings(ctx context.Context) ([]models.AgentListing, error)
	GetListing(ctx context.Context, name string) (*models.AgentListing, error)
	PutListing(ctx context.Context, listing *models.AgentListing) error
}

// ── Earnings Store ──────────────────────────────────────────

// EarningsStore tracks cumulative rewards per agent. Virtual credits record
// rewards for agents that share the operator account, where a real transfer
// would be a ledger no-op.
type EarningsStore interface {
	CreditEarnings(ctx context.Context, agent string, amountAFC float64, virtual bool) error
	Earnings(ctx context.Context, agent string) (*models.Earnings, error)
}

// ── Execution Store ─────────────────────────────────────────

// ExecutionStore keeps the observability trail of gated executions.
type ExecutionStore interface {
	RecordExecution(ctx context.Context, rec *models.ExecutionRecord) error
	ListExecutions(ctx context.Context, limit int) ([]models.ExecutionRecord, error)

	// PruneExecutions drops records created before cutoff, always keeping
	// the newest keep records. It returns how many were dropped.
	PruneExecutions(ctx context.Context, cutoff time.Time, keep int) (int, error)
}
