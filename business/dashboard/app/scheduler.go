package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/fd1az/silver-ai/internal/logger"
)

// Triggerer starts a refresh without waiting for it.
type Triggerer interface {
	Trigger(ctx context.Context) bool
}

// Scheduler triggers refreshes on a cron spec with a seconds field.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	target  Triggerer
	logger  logger.LoggerInterface
	ctx     context.Context
	skipped atomic.Int64
}

// NewScheduler validates spec and registers the refresh job.
func NewScheduler(ctx context.Context, spec string, target Triggerer, log logger.LoggerInterface) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		spec:   spec,
		target: target,
		logger: log,
		ctx:    ctx,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("register auto refresh %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "auto refresh scheduled", "spec", s.spec)
}

// Stop stops the scheduler and waits for a running tick to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info(s.ctx, "auto refresh stopped")
}

// Skipped returns how many ticks found a cycle already running.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

func (s *Scheduler) tick() {
	if s.target.Trigger(s.ctx) {
		s.logger.Debug(s.ctx, "auto refresh triggered")
		return
	}
	n := s.skipped.Add(1)
	s.logger.Info(s.ctx, "auto refresh skipped, refresh in flight", "skipped", n)
}
