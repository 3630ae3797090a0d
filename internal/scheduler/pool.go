package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"crosspost/internal/domain"
)

// Executor runs one publish attempt for an intent.
type Executor interface {
	Execute(ctx context.Context, intent *domain.PublishIntent) error
}

// Claimer is the part of the planner workers talk to.
type Claimer interface {
	Claim(ctx context.Context, id string) error
	Retry(ctx context.Context, id string, at time.Time) error
}

type PoolConfig struct {
	Size int
	// IntentTimeout bounds one Execute call.
	IntentTimeout time.Duration
	// BusyDelay is how long an intent waits when its pair is already in
	// flight or execution failed on storage.
	BusyDelay time.Duration
}

// Pool runs a fixed number of workers draining the planner's emissions.
type Pool struct {
	cfg      PoolConfig
	claimer  Claimer
	executor Executor
	logger   *slog.Logger
	now      func() time.Time
}

func NewPool(cfg PoolConfig, claimer Claimer, executor Executor, logger *slog.Logger) *Pool {
	if cfg.Size < 1 {
		cfg.Size = 1
	}
	if cfg.BusyDelay <= 0 {
		cfg.BusyDelay = 30 * time.Second
	}
	return &Pool{
		cfg:      cfg,
		claimer:  claimer,
		executor: executor,
		logger:   logger.With("component", "pool"),
		now:      time.Now,
	}
}

// Run blocks until intents is closed or ctx is done.
func (p *Pool) Run(ctx context.Context, intents <-chan domain.PublishIntent) error {
	p.logger.Info("worker pool started", "workers", p.cfg.Size)

	g, ctx := errgroup.WithContext(ctx)
	for i := range p.cfg.Size {
		g.Go(func() error {
			p.work(ctx, i, intents)
			return nil
		})
	}
	err := g.Wait()

	p.logger.Info("worker pool stopped")
	return err
}

func (p *Pool) work(ctx context.Context, worker int, intents <-chan domain.PublishIntent) {
	for {
		select {
		case <-ctx.Done():
			return
		case intent, ok := <-intents:
			if !ok {
				return
			}
			p.handle(ctx, worker, &intent)
		}
	}
}

func (p *Pool) handle(ctx context.Context, worker int, intent *domain.PublishIntent) {
	logger := p.logger.With("worker", worker, "intent_id", intent.ID)

	if err := p.claimer.Claim(ctx, intent.ID); err != nil {
		logger.Debug("skipping emission", "error", err)
		return
	}

	execCtx := ctx
	if p.cfg.IntentTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, p.cfg.IntentTimeout)
		defer cancel()
	}

	err := p.executor.Execute(execCtx, intent)
	if err == nil {
		return
	}

	if errors.Is(err, domain.ErrAlreadyInFlight) {
		logger.Info("pair busy, requeueing intent", "retry_in", p.cfg.BusyDelay)
	} else {
		logger.Error("execute intent failed", "error", err)
	}
	if err := p.claimer.Retry(context.WithoutCancel(ctx), intent.ID, p.now().Add(p.cfg.BusyDelay)); err != nil {
		logger.Error("requeue intent failed", "error", err)
	}
}
