package source

import (
	"context"
	"sync"
	"time"

	"github.com/fentz26/stageboard/internal/models"
)

// Static serves a fixed in-memory schedule. Useful for development and for
// running the board without a backing spreadsheet or database.
type Static struct {
	mu   sync.RWMutex
	acts []models.Act
}

var _ Source = (*Static)(nil)

// NewStatic creates a static source over the given acts.
func NewStatic(acts []models.Act) *Static {
	return &Static{acts: models.CloneActs(acts)}
}

// Load returns a copy of the current act list.
func (s *Static) Load(_ context.Context) ([]models.Act, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneActs(s.acts), nil
}

// WriteActual updates the named act's field in place.
func (s *Static) WriteActual(_ context.Context, act string, field Field, value *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.acts {
		if s.acts[i].Name != act {
			continue
		}
		var v *time.Time
		if value != nil {
			t := *value
			v = &t
		}
		switch field {
		case FieldEnd:
			s.acts[i].ActualEnd = v
		default:
			s.acts[i].ActualStart = v
		}
		return nil
	}
	return ErrActNotFound
}

// Update replaces the act list, simulating an upstream schedule change.
func (s *Static) Update(acts []models.Act) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acts = models.CloneActs(acts)
}

// DefaultSchedule returns the stock eight-act festival day, with all times
// placed on the given day in its location.
func DefaultSchedule(day time.Time) []models.Act {
	at := func(h, m int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
	}
	return []models.Act{
		{Name: "Sunrise Collective", ScheduledStart: at(11, 30), ScheduledEnd: at(12, 0)},
		{Name: "Desert Echoes", ScheduledStart: at(12, 0), ScheduledEnd: at(13, 45)},
		{Name: "Neon Mirage", ScheduledStart: at(14, 0), ScheduledEnd: at(15, 0)},
		{Name: "Cosmic Wanderers", ScheduledStart: at(15, 15), ScheduledEnd: at(16, 15)},
		{Name: "Valley Vibes", ScheduledStart: at(16, 30), ScheduledEnd: at(17, 30)},
		{Name: "Mojave Dreams", ScheduledStart: at(18, 0), ScheduledEnd: at(19, 15)},
		{Name: "Indio Nights", ScheduledStart: at(19, 45), ScheduledEnd: at(21, 0)},
		{Name: "The Headliners", ScheduledStart: at(21, 30), ScheduledEnd: at(23, 30)},
	}
}
