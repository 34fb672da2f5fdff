// Package retention bounds the in-memory execution trail. The janitor runs
// as a background goroutine, dropping execution records older than the
// retention window while always keeping the most recent ones, and respects
// context cancellation for graceful shutdown.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agentfi/agentfi/internal/store"
)

// DefaultRetentionDays is how long execution records are kept.
const DefaultRetentionDays = 7

// DefaultKeepRecords is the floor of records never pruned, regardless of age.
const DefaultKeepRecords = 1000

// Janitor periodically prunes expired execution records.
type Janitor struct {
	store    store.ExecutionStore
	interval time.Duration
	maxAge   time.Duration
	keep     int
}

// NewJanitor creates a retention janitor that runs on the given interval.
func NewJanitor(s store.ExecutionStore, interval time.Duration, retentionDays, keep int) *Janitor {
	if interval < time.Minute {
		interval = time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if keep <= 0 {
		keep = DefaultKeepRecords
	}
	return &Janitor{
		store:    s,
		interval: interval,
		maxAge:   time.Duration(retentionDays) * 24 * time.Hour,
		keep:     keep,
	}
}

// Start runs the janitor until ctx is canceled.
func (j *Janitor) Start(ctx context.Context) {
	log.Info().
		Dur("interval", j.interval).
		Dur("max_age", j.maxAge).
		Int("keep", j.keep).
		Msg("Retention janitor started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Retention janitor stopped")
			return
		case <-ticker.C:
			j.runCycle(ctx)
		}
	}
}

// runCycle performs one retention sweep.
func (j *Janitor) runCycle(ctx context.Context) {
	cutoff := time.Now().Add(-j.maxAge)
	pruned, err := j.store.PruneExecutions(ctx, cutoff, j.keep)
	if err != nil {
		log.Warn().Err(err).Msg("Retention cycle failed")
		return
	}
	if pruned > 0 {
		log.Info().Int("pruned", pruned).Time("cutoff", cutoff).Msg("Retention cycle complete")
	}
}
