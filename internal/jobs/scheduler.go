package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"invoicehub/internal/logger"
	"invoicehub/internal/service"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

// DefaultRollupTimeout bounds a single nightly rebuild of client stats.
const DefaultRollupTimeout = 10 * time.Minute

// Scheduler runs the periodic client stats rebuild.
type Scheduler struct {
	cron    *cron.Cron
	stats   service.ClientStatsService
	timeout time.Duration
	running atomic.Bool
	log     zerolog.Logger
}

// NewScheduler registers the rollup under the given cron spec ("@daily", "0 30 2 * * *").
func NewScheduler(stats service.ClientStatsService, spec string, timeout time.Duration) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = DefaultRollupTimeout
	}
	s := &Scheduler{
		cron:    cron.New(),
		stats:   stats,
		timeout: timeout,
		log:     logger.WithComponent("scheduler"),
	}
	if err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid rollup schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunRollup(ctx); err != nil {
		s.log.Error().Err(err).Msg("client stats rollup failed")
	}
}

// RunRollup rebuilds every owner's client stats. A run that starts while
// another is still in progress is skipped.
func (s *Scheduler) RunRollup(ctx context.Context) (service.RebuildResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("previous rollup still running, skipping")
		return service.RebuildResult{}, nil
	}
	defer s.running.Store(false)

	start := time.Now()
	result, err := s.stats.RebuildAll(ctx)
	if err != nil {
		return result, fmt.Errorf("rebuild client stats: %w", err)
	}
	s.log.Info().
		Int("owners", result.Owners).
		Int("clients", result.Clients).
		Int("failed", result.Failed).
		Dur("took", time.Since(start)).
		Msg("client stats rollup finished")
	return result, nil
}
