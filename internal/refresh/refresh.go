// Package refresh drives the periodic pull from the authoritative schedule
// source.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refreshable is the narrow surface the loop drives; in practice the board
// service.
type Refreshable interface {
	Refresh(ctx context.Context) error
}

// Loop refreshes the target on a fixed interval. Each attempt runs under a
// bounded timeout; a failed attempt is logged and simply retried on the
// next tick, leaving the last good schedule in place.
type Loop struct {
	target   Refreshable
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoop creates a refresh loop. interval and timeout must be positive.
func NewLoop(target Refreshable, interval, timeout time.Duration, logger *slog.Logger) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		target:   target,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins ticking in the background.
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
	l.logger.Info("refresh loop started", "interval", l.interval)
}

// Stop cancels the loop and waits for the in-flight tick, if any.
func (l *Loop) Stop() {
	l.cancel()
	l.wg.Wait()
	l.logger.Info("refresh loop stopped")
}

func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

func (l *Loop) tick() {
	ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
	defer cancel()

	if err := l.target.Refresh(ctx); err != nil {
		l.logger.Warn("schedule refresh failed, keeping last good schedule", "error", err)
	}
}
