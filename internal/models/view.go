package models

import "time"

// DerivedActView is the projection engine's per-act output. It is computed
// on every read and carries no identity across calls.
type DerivedActView struct {
	Act   Act      `json:"act"`
	State ActState `json:"state"`

	// Variances are present only once the corresponding actual time has
	// been recorded. Positive means late.
	StartVariance        *Seconds `json:"start_variance,omitempty"`
	EndVariance          *Seconds `json:"end_variance,omitempty"`
	StartVarianceDisplay string   `json:"start_variance_display,omitempty"`
	EndVarianceDisplay   string   `json:"end_variance_display,omitempty"`

	// ProjectedStart is never earlier than the act's scheduled start.
	// ProjectedEnd is the resolved end: actual when completed, a live
	// estimate while running, a pure projection otherwise.
	ProjectedStart time.Time `json:"projected_start"`
	ProjectedEnd   time.Time `json:"projected_end"`

	SlipIn  Seconds `json:"slip_in"`
	SlipOut Seconds `json:"slip_out"`

	// Break fields are absent on the last act. ScheduledBreak is reported
	// as published and may be negative for back-to-back schedules.
	// ProjectedBreak is absent while a running act overruns the next
	// scheduled start; Overlap reports the overrun instead.
	ScheduledBreak *Seconds `json:"scheduled_break,omitempty"`
	ProjectedBreak *Seconds `json:"projected_break,omitempty"`
	Overlap        *Seconds `json:"overlap,omitempty"`
}

// HeadlineSummary is the board-level rollup shown above the act list.
type HeadlineSummary struct {
	Now       time.Time `json:"now"`
	StageName string    `json:"stage_name,omitempty"`

	// CurrentAct is the highest-positioned act that is running or
	// completed; empty until the first act is recorded.
	CurrentAct   string   `json:"current_act,omitempty"`
	CurrentState ActState `json:"current_state,omitempty"`

	CurrentSlip Seconds `json:"current_slip"`

	// End-of-day estimates. EstimatedEnd follows the last act's resolved
	// end, so a recorded early finish can pull it before ScheduledEnd.
	// Both are zero when the schedule is empty.
	ScheduledEnd time.Time `json:"scheduled_end_of_day"`
	EstimatedEnd time.Time `json:"estimated_end_of_day"`
}

// Snapshot is the sole data contract pushed to connected sessions. It is a
// full replacement on every broadcast, never an incremental patch.
type Snapshot struct {
	Acts       []DerivedActView `json:"acts"`
	Headline   HeadlineSummary  `json:"headline"`
	Brightness int              `json:"brightness_nits"`
}
