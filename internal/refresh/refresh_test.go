package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	calls atomic.Int64
	err   error
}

func (c *countingTarget) Refresh(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoopTicks(t *testing.T) {
	target := &countingTarget{}
	loop := NewLoop(target, 10*time.Millisecond, time.Second, testLogger())

	loop.Start()
	require.Eventually(t, func() bool {
		return target.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	loop.Stop()
}

func TestLoopKeepsTickingAfterFailures(t *testing.T) {
	target := &countingTarget{err: errors.New("source down")}
	loop := NewLoop(target, 10*time.Millisecond, time.Second, testLogger())

	loop.Start()
	require.Eventually(t, func() bool {
		return target.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	loop.Stop()
}

func TestStopHaltsTicking(t *testing.T) {
	target := &countingTarget{}
	loop := NewLoop(target, 5*time.Millisecond, time.Second, testLogger())

	loop.Start()
	require.Eventually(t, func() bool {
		return target.calls.Load() >= 1
	}, time.Second, time.Millisecond)
	loop.Stop()

	after := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, target.calls.Load())
}

type blockingTarget struct {
	started chan struct{}
}

func (b *blockingTarget) Refresh(ctx context.Context) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestTickIsBoundedByTimeout(t *testing.T) {
	target := &blockingTarget{started: make(chan struct{})}
	loop := NewLoop(target, 5*time.Millisecond, 20*time.Millisecond, testLogger())

	loop.Start()
	<-target.started

	done := make(chan struct{})
	go func() {
		loop.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return; tick not cancelled")
	}
}
