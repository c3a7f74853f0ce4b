// Tunegraph - Music Recommendation Profile and Caching Engine
// Copyright 2026 Per Hassle (perhassle)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/perhassle/tunegraph

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PeriodicService runs a job function on a fixed interval under
// suture supervision. The recommendation cache sweep and the trending
// recompute both run as instances of this service.
type PeriodicService struct {
	name       string
	interval   time.Duration
	runOnStart bool
	job        func(ctx context.Context)
	logger     zerolog.Logger
}

// NewPeriodicService wraps a job for supervision. Intervals of zero
// or less fall back to one minute.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPeriodicService(name string, interval time.Duration, runOnStart bool, job func(ctx context.Context), logger zerolog.Logger) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		job:        job,
		logger:     logger.With().Str("service", name).Logger(),
	}
}

// Serve implements suture.Service. It runs the job on each tick until
// the context is canceled.
func (s *PeriodicService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Periodic job starting")

	if s.runOnStart {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Periodic job shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

// run executes one job cycle, bounded by the interval so a stuck job
// cannot pile up behind the ticker.
func (s *PeriodicService) run(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	start := time.Now()
	s.job(jobCtx)
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("Periodic job cycle completed")
}

// String returns the service name for supervisor logs.
func (s *PeriodicService) String() string {
	return s.name
}
