// Package board provides the operator-facing service and its HTTP/WebSocket
// transport.
//
// The service owns the wiring described by the control flow: the source
// feeds the store, the Recorder mutates it, every mutation or refresh runs
// the projection engine once, and the resulting snapshot is pushed to all
// connected sessions.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fentz26/stageboard/internal/broadcast"
	"github.com/fentz26/stageboard/internal/clock"
	"github.com/fentz26/stageboard/internal/metrics"
	"github.com/fentz26/stageboard/internal/models"
	"github.com/fentz26/stageboard/internal/projection"
	"github.com/fentz26/stageboard/internal/schedule"
	"github.com/fentz26/stageboard/internal/source"
	"github.com/google/uuid"
)

// Service coordinates the schedule store, projection engine, clock,
// broadcaster, and authoritative source.
type Service struct {
	store  *schedule.Store
	clk    *clock.Clock
	bcast  *broadcast.Broadcaster
	src    source.Source
	logger *slog.Logger
	met    *metrics.Metrics
	stage  string

	mu         sync.Mutex
	brightness int
}

// NewService wires a board service. src may be nil when there is no
// authoritative source to mirror writes to.
func NewService(store *schedule.Store, clk *clock.Clock, bcast *broadcast.Broadcaster,
	src source.Source, stage string, logger *slog.Logger, met *metrics.Metrics,
) *Service {
	return &Service{
		store:  store,
		clk:    clk,
		bcast:  bcast,
		src:    src,
		logger: logger,
		met:    met,
		stage:  stage,
	}
}

// Snapshot recomputes the full projection at the clock's current time.
func (s *Service) Snapshot() models.Snapshot {
	views, headline := projection.Project(s.store.Snapshot(), s.clk.Now())
	headline.StageName = s.stage

	s.mu.Lock()
	brightness := s.brightness
	s.mu.Unlock()

	return models.Snapshot{Acts: views, Headline: headline, Brightness: brightness}
}

// RecordStart records an actual start time for the named act and broadcasts
// the refreshed projection.
func (s *Service) RecordStart(ctx context.Context, name string, at time.Time) (models.Act, error) {
	act, err := s.store.RecordStart(name, at)
	if err != nil {
		s.met.CommandsTotal.WithLabelValues("record_start", "error").Inc()
		return models.Act{}, err
	}
	s.met.CommandsTotal.WithLabelValues("record_start", "ok").Inc()
	s.writeThrough(ctx, name, source.FieldStart, act.ActualStart)
	s.publish()
	return act, nil
}

// RecordEnd records an actual end time for the named act and broadcasts the
// refreshed projection.
func (s *Service) RecordEnd(ctx context.Context, name string, at time.Time) (models.Act, error) {
	act, err := s.store.RecordEnd(name, at)
	if err != nil {
		s.met.CommandsTotal.WithLabelValues("record_end", "error").Inc()
		return models.Act{}, err
	}
	s.met.CommandsTotal.WithLabelValues("record_end", "ok").Inc()
	s.writeThrough(ctx, name, source.FieldEnd, act.ActualEnd)
	s.publish()
	return act, nil
}

// Clear removes both actual times from the named act and broadcasts.
func (s *Service) Clear(ctx context.Context, name string) (models.Act, error) {
	act, err := s.store.Clear(name)
	if err != nil {
		s.met.CommandsTotal.WithLabelValues("clear", "error").Inc()
		return models.Act{}, err
	}
	s.met.CommandsTotal.WithLabelValues("clear", "ok").Inc()
	s.writeThrough(ctx, name, source.FieldStart, nil)
	s.writeThrough(ctx, name, source.FieldEnd, nil)
	s.publish()
	return act, nil
}

// ResetAll clears actual times on every act, returning the whole board to
// upcoming, and broadcasts once.
func (s *Service) ResetAll(ctx context.Context) {
	acts := s.store.Snapshot()
	s.store.ResetAll()
	s.met.CommandsTotal.WithLabelValues("reset_all", "ok").Inc()
	for _, act := range acts {
		if act.ActualStart == nil && act.ActualEnd == nil {
			continue
		}
		s.writeThrough(ctx, act.Name, source.FieldStart, nil)
		s.writeThrough(ctx, act.Name, source.FieldEnd, nil)
	}
	s.publish()
}

// Refresh pulls the schedule from the authoritative source and merges it
// into the store. On failure the previous schedule is retained and no
// broadcast is triggered.
func (s *Service) Refresh(ctx context.Context) error {
	if s.src == nil {
		return nil
	}
	acts, err := s.src.Load(ctx)
	if err != nil {
		s.met.RefreshesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load schedule: %w", err)
	}
	s.store.ApplyRefresh(acts, s.clk.Now())
	s.met.RefreshesTotal.WithLabelValues("ok").Inc()
	s.publish()
	return nil
}

// SetClockOverride pins the process-wide clock and broadcasts the projection
// at the overridden time.
func (s *Service) SetClockOverride(t time.Time) {
	s.clk.SetOverride(t)
	s.logger.Info("clock override set", "time", t)
	s.publish()
}

// ClearClockOverride resumes live time and broadcasts.
func (s *Service) ClearClockOverride() {
	s.clk.ClearOverride()
	s.logger.Info("clock override cleared")
	s.publish()
}

// SetBrightness records the latest Art-Net brightness reading and
// broadcasts when it changed.
func (s *Service) SetBrightness(nits int) {
	s.mu.Lock()
	changed := s.brightness != nits
	s.brightness = nits
	s.mu.Unlock()

	if changed {
		s.publish()
	}
}

// Brightness returns the latest Art-Net reading in nits.
func (s *Service) Brightness() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// Join registers a session with the broadcaster; the current snapshot is
// delivered before any subsequent broadcast.
func (s *Service) Join(mode broadcast.Mode) *broadcast.Session {
	sess := s.bcast.Join(mode, s.Snapshot())
	s.met.SessionsConnected.Set(float64(s.bcast.Count()))
	return sess
}

// Leave removes a session.
func (s *Service) Leave(id uuid.UUID) {
	s.bcast.Leave(id)
	s.met.SessionsConnected.Set(float64(s.bcast.Count()))
}

// writeThrough mirrors a recorded actual time to the authoritative source.
// Failures are logged and swallowed: the local store stays authoritative.
func (s *Service) writeThrough(ctx context.Context, name string, field source.Field, value *time.Time) {
	if s.src == nil {
		return
	}
	if err := s.src.WriteActual(ctx, name, field, value); err != nil {
		s.logger.Warn("source write-through failed",
			"act", name, "field", string(field), "error", err)
	}
}

func (s *Service) publish() {
	s.bcast.Publish(s.Snapshot())
	s.met.BroadcastsTotal.Inc()
}
