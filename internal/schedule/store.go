// Package schedule holds the shared mutable schedule state and the Recorder
// that applies operator commands to it.
//
// The store is the single point of mutation in the system: operator
// record/clear commands and the periodic source refresh both serialize
// through one lock, and every read hands out a deep copy so the projection
// engine never observes a half-written act.
package schedule

import (
	"sync"
	"time"

	"github.com/fentz26/stageboard/internal/clock"
	"github.com/fentz26/stageboard/internal/models"
)

// Store owns the ordered act list. Published fields are only ever replaced
// wholesale by ApplyRefresh; actual fields are only written by the Recorder
// methods, with last-write-wins conflict resolution on the per-act
// LastModified stamp.
type Store struct {
	mu    sync.RWMutex
	clk   *clock.Clock
	acts  []models.Act
	index map[string]int
}

// NewStore returns an empty store. The clock supplies the wall-clock half
// of each write's last-modified stamp.
func NewStore(clk *clock.Clock) *Store {
	return &Store{
		clk:   clk,
		index: make(map[string]int),
	}
}

// Snapshot returns a deep copy of the current schedule in running order.
func (s *Store) Snapshot() []models.Act {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneActs(s.acts)
}

// Get returns a copy of the named act.
func (s *Store) Get(name string) (models.Act, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[name]
	if !ok {
		return models.Act{}, false
	}
	return s.acts[i].Clone(), true
}

// Len reports the number of acts in the schedule.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.acts)
}

// RecordStart records an operator-submitted actual start time.
//
// The write's last-modified stamp is the later of the submitted time and
// the clock's current time. A write whose stamp is older than the act's
// existing stamp loses the last-write-wins race and is silently discarded;
// ties go to the newest call. The returned act reflects whatever state the
// store holds after the call.
func (s *Store) RecordStart(name string, at time.Time) (models.Act, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[name]
	if !ok {
		return models.Act{}, ErrActNotFound
	}
	act := &s.acts[i]

	if act.ActualEnd != nil && at.After(*act.ActualEnd) {
		return models.Act{}, ErrStartAfterEnd
	}

	stamp := s.stamp(at)
	if act.LastModified != nil && act.LastModified.After(stamp) {
		return act.Clone(), nil
	}

	t := at
	act.ActualStart = &t
	act.LastModified = &stamp
	return act.Clone(), nil
}

// RecordEnd records an operator-submitted actual end time. Fails with
// ErrEndBeforeStart if the resulting end would precede the recorded start.
func (s *Store) RecordEnd(name string, at time.Time) (models.Act, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[name]
	if !ok {
		return models.Act{}, ErrActNotFound
	}
	act := &s.acts[i]

	if act.ActualStart != nil && at.Before(*act.ActualStart) {
		return models.Act{}, ErrEndBeforeStart
	}

	stamp := s.stamp(at)
	if act.LastModified != nil && act.LastModified.After(stamp) {
		return act.Clone(), nil
	}

	t := at
	act.ActualEnd = &t
	act.LastModified = &stamp
	return act.Clone(), nil
}

// Clear removes both actual times and the last-modified stamp, returning
// the act to upcoming.
func (s *Store) Clear(name string) (models.Act, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[name]
	if !ok {
		return models.Act{}, ErrActNotFound
	}
	act := &s.acts[i]
	act.ActualStart = nil
	act.ActualEnd = nil
	act.LastModified = nil
	return act.Clone(), nil
}

// ResetAll clears actual times on every act.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.acts {
		s.acts[i].ActualStart = nil
		s.acts[i].ActualEnd = nil
		s.acts[i].LastModified = nil
	}
}

// ApplyRefresh replaces the schedule wholesale with the source's view,
// taken at snapshotAt.
//
// Published fields always follow the source: it is their sole owner.
// Source-supplied actual times are treated as a write stamped snapshotAt,
// so a locally recorded actual newer than the refresh snapshot survives the
// merge. Acts absent from the source are dropped; ordering follows the
// source exactly.
func (s *Store) ApplyRefresh(acts []models.Act, snapshotAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]models.Act, 0, len(acts))
	index := make(map[string]int, len(acts))
	for _, in := range acts {
		act := in.Clone()
		if j, ok := s.index[act.Name]; ok {
			cur := &s.acts[j]
			if cur.LastModified != nil && cur.LastModified.After(snapshotAt) {
				local := cur.Clone()
				act.ActualStart = local.ActualStart
				act.ActualEnd = local.ActualEnd
				act.LastModified = local.LastModified
			} else if act.ActualStart != nil || act.ActualEnd != nil {
				ts := snapshotAt
				act.LastModified = &ts
			}
		} else if act.ActualStart != nil || act.ActualEnd != nil {
			ts := snapshotAt
			act.LastModified = &ts
		}
		index[act.Name] = len(merged)
		merged = append(merged, act)
	}

	s.acts = merged
	s.index = index
}

// stamp resolves a write's last-modified timestamp: the later of the
// submitted time and the clock's notion of now.
func (s *Store) stamp(at time.Time) time.Time {
	now := s.clk.Now()
	if at.After(now) {
		return at
	}
	return now
}
