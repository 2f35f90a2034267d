// Package sweeper runs the periodic expiry reclamation loop.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/Barnamoyy/fileshare/internal/logging"
)

// Purger reclaims expired objects and reports how many were removed.
type Purger interface {
	Sweep(ctx context.Context) (int, error)
}

// Sweeper triggers a purge at a fixed interval until its context is
// cancelled. Each run gets its own deadline so a stuck backend cannot
// block shutdown.
type Sweeper struct {
	purger     Purger
	logger     logging.Logger
	interval   time.Duration
	runTimeout time.Duration
}

func New(purger Purger, logger logging.Logger, interval, runTimeout time.Duration) *Sweeper {
	return &Sweeper{
		purger:     purger,
		logger:     logger.With("module", "sweeper"),
		interval:   interval,
		runTimeout: runTimeout,
	}
}

// Run blocks until ctx is cancelled. A run already in progress finishes
// (within its own deadline) before Run returns.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info(ctx, "sweeper started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "sweeper stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout)
	defer cancel()

	deleted, err := s.purger.Sweep(runCtx)
	switch {
	case err == nil:
		if deleted > 0 {
			s.logger.Info(ctx, "sweep run complete", "deleted", deleted)
		}
	case errors.Is(err, common.ErrPartialCleanup):
		s.logger.Warn(ctx, "sweep run partially failed", "deleted", deleted, "error", err.Error())
	default:
		s.logger.Error(ctx, "sweep run failed", "error", err.Error())
	}
}
