package match

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/monitoring"
)

// Source lists the matches a scheduler beat advances
type Source interface {
	Matches() []*Match
}

// Scheduler is the global tick clock. Every beat advances each live match
// once; different matches run in parallel up to the configured limit, and
// a match whose previous tick is still running is skipped.
type Scheduler struct {
	source      Source
	interval    time.Duration
	parallelism int
	monitor     *monitoring.TickMonitor
	logger      zerolog.Logger
	running     atomic.Bool
}

// NewScheduler creates a scheduler; parallelism below 1 means one match at a time
func NewScheduler(source Source, interval time.Duration, parallelism int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		source:      source,
		interval:    interval,
		parallelism: max(parallelism, 1),
		logger:      logger.With().Str("component", "Scheduler").Logger(),
	}
}

// WithMonitor records every beat on m
func (s *Scheduler) WithMonitor(m *monitoring.TickMonitor) *Scheduler {
	s.monitor = m
	return s
}

// Running reports whether Run is active
func (s *Scheduler) Running() bool { return s.running.Load() }

// Run beats until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", s.interval)
	}
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("scheduler already running")
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.interval).
		Int("parallelism", s.parallelism).
		Msg("Scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.Beat(ctx)
		}
	}
}

// Beat advances every live match once and returns how many ticks failed
func (s *Scheduler) Beat(ctx context.Context) int {
	start := time.Now()
	matches := s.source.Matches()

	var failures atomic.Int32
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for _, m := range matches {
		g.Go(func() error {
			if err := s.advance(ctx, m); err != nil {
				failures.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	overrun := elapsed > s.interval
	if overrun {
		s.logger.Warn().
			Dur("elapsed", elapsed).
			Dur("interval", s.interval).
			Int("matches", len(matches)).
			Msg("Scheduler beat overran tick interval")
	}
	if s.monitor != nil {
		s.monitor.Record(monitoring.Beat{
			Matches:  len(matches),
			Failures: int(failures.Load()),
			Duration: elapsed,
			Overrun:  overrun,
		})
	}
	return int(failures.Load())
}

func (s *Scheduler) advance(ctx context.Context, m *Match) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("match_id", m.ID()).
				Msg("Match tick panicked")
			err = fmt.Errorf("match %s: tick panicked: %v", m.ID(), r)
		}
	}()

	err = m.Tick(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrTickInProgress):
		s.logger.Debug().Str("match_id", m.ID()).Msg("Previous tick still running, skipping")
		return nil
	case errors.Is(err, ErrMatchClosed):
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	}
	s.logger.Error().Err(err).Str("match_id", m.ID()).Msg("Match tick failed")
	return err
}
