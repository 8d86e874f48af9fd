package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/chanwatch/chanwatch/internal/logger"
)

// Runner drives the sync engine on a fixed interval. Passes run in a single
// goroutine, one at a time; a pass that outlasts the interval simply delays
// the next tick.
type Runner struct {
	service  *Service
	interval time.Duration
	log      *logger.Logger

	mu   sync.RWMutex
	last *PassResult
}

// NewRunner creates a runner that executes a pass every interval.
func NewRunner(service *Service, interval time.Duration, log *logger.Logger) *Runner {
	return &Runner{
		service:  service,
		interval: interval,
		log:      log,
	}
}

// Run executes passes until the context is cancelled. The first pass starts
// immediately, before the first tick.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("runner: starting")

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("runner: stopping")
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	result, err := r.service.RunPass(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("runner: pass failed")
	}
	if result != nil {
		r.mu.Lock()
		r.last = result
		r.mu.Unlock()
	}
}

// LastResult returns the statistics of the most recent pass, or nil when no
// pass has completed yet.
func (r *Runner) LastResult() *PassResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}
