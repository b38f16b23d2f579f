package services

import (
	"context"
	"time"

	"github.com/musss2003/price-predictor-app/utils"
)

// SyncFunc runs one sync pass. full selects the deep crawl; incremental
// passes crawl fewer pages.
type SyncFunc func(ctx context.Context, full bool) error

// Scheduler alternates full and incremental sync runs on fixed
// intervals from a single goroutine, so runs never overlap.
type Scheduler struct {
	logger           *utils.Logger
	fullEvery        time.Duration
	incrementalEvery time.Duration
	run              SyncFunc
	now              func() time.Time
}

// NewScheduler creates a Scheduler.
func NewScheduler(logger *utils.Logger, fullEvery, incrementalEvery time.Duration, run SyncFunc) *Scheduler {
	return &Scheduler{
		logger:           logger.WithPrefix("scheduler"),
		fullEvery:        fullEvery,
		incrementalEvery: incrementalEvery,
		run:              run,
		now:              time.Now,
	}
}

// Run starts with one full sync, then wakes on the incremental interval
// and promotes a run to full whenever the full interval has elapsed. It
// returns when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting: full sync every %s, incremental every %s",
		s.fullEvery, s.incrementalEvery)

	lastFull := s.now()
	if err := s.runOnce(ctx, true); err != nil {
		s.logger.Error("full sync: %v", err)
	}

	ticker := time.NewTicker(s.incrementalEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping")
			return ctx.Err()
		case <-ticker.C:
			full := s.now().Sub(lastFull) >= s.fullEvery
			if full {
				lastFull = s.now()
			}
			if err := s.runOnce(ctx, full); err != nil {
				s.logger.Error("sync: %v", err)
			}
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, full bool) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	kind := "incremental"
	if full {
		kind = "full"
	}
	s.logger.Info("running %s sync", kind)
	return s.run(ctx, full)
}
