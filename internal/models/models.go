// Package models defines the core domain types for Stageboard.
package models

import "time"

// ActState represents an act's progress through the running order.
//
// Classification is operator-driven, not time-driven: an act stays upcoming
// until a start is recorded, regardless of the wall clock.
type ActState string

const (
	StateUpcoming  ActState = "upcoming"
	StateRunning   ActState = "running"
	StateCompleted ActState = "completed"
)

// Act is a single entry in the published running order.
//
// Scheduled fields are owned by the authoritative source and are never
// mutated locally. Actual fields are written only by the Recorder.
type Act struct {
	Name           string     `json:"name"`
	ScheduledStart time.Time  `json:"scheduled_start"`
	ScheduledEnd   time.Time  `json:"scheduled_end"`
	ActualStart    *time.Time `json:"actual_start,omitempty"`
	ActualEnd      *time.Time `json:"actual_end,omitempty"`
	Notes          string     `json:"notes,omitempty"`

	// LastModified stamps the most recent write to either actual field.
	// Absent until first recorded; used for last-write-wins merges.
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// ScheduledDuration returns the published length of the act.
func (a *Act) ScheduledDuration() time.Duration {
	return a.ScheduledEnd.Sub(a.ScheduledStart)
}

// ActualDuration returns the recorded length of the act, if both actual
// times are present.
func (a *Act) ActualDuration() (time.Duration, bool) {
	if a.ActualStart == nil || a.ActualEnd == nil {
		return 0, false
	}
	return a.ActualEnd.Sub(*a.ActualStart), true
}

// StartVariance returns how late the act started versus the published
// schedule (positive = late), if a start has been recorded.
func (a *Act) StartVariance() (time.Duration, bool) {
	if a.ActualStart == nil {
		return 0, false
	}
	return a.ActualStart.Sub(a.ScheduledStart), true
}

// EndVariance returns how late the act ended versus the published schedule
// (positive = late), if an end has been recorded.
func (a *Act) EndVariance() (time.Duration, bool) {
	if a.ActualEnd == nil {
		return 0, false
	}
	return a.ActualEnd.Sub(a.ScheduledEnd), true
}

// State classifies the act: completed once an end is recorded, running once
// a start is recorded, upcoming otherwise.
func (a *Act) State() ActState {
	switch {
	case a.ActualEnd != nil:
		return StateCompleted
	case a.ActualStart != nil:
		return StateRunning
	default:
		return StateUpcoming
	}
}

// Clone returns a deep copy of the act. Pointer fields are duplicated so a
// snapshot can never alias store-owned memory.
func (a *Act) Clone() Act {
	out := *a
	out.ActualStart = cloneTime(a.ActualStart)
	out.ActualEnd = cloneTime(a.ActualEnd)
	out.LastModified = cloneTime(a.LastModified)
	return out
}

// CloneActs deep-copies an ordered schedule.
func CloneActs(acts []Act) []Act {
	out := make([]Act, len(acts))
	for i := range acts {
		out[i] = acts[i].Clone()
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
