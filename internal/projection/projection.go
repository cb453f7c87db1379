// Package projection derives per-act views and the headline summary from
// the published schedule overlaid with recorded actual times.
//
// Project is a pure function over (ordered acts, now): no hidden state, so
// recomputing with the same inputs yields identical output and concurrent
// calls need no coordination.
package projection

import (
	"time"

	"github.com/fentz26/stageboard/internal/models"
)

// Project walks the running order once, carrying a non-negative slip from
// act to act, and returns one view per act plus the headline summary.
//
// For each act the projected start is its scheduled start shifted by the
// slip carried in; a recorded actual start is displayed but does not feed
// back into slip; only the resolved end does. The slip passed downstream
// is clamped at zero, so an early finish widens the following break instead
// of pulling later acts ahead of the published schedule.
func Project(acts []models.Act, now time.Time) ([]models.DerivedActView, models.HeadlineSummary) {
	views := make([]models.DerivedActView, 0, len(acts))
	headline := models.HeadlineSummary{Now: now}

	slip := time.Duration(0)
	currentIdx := -1

	for i := range acts {
		act := acts[i].Clone()
		view := models.DerivedActView{
			Act:            act,
			State:          act.State(),
			SlipIn:         models.NewSeconds(slip),
			ProjectedStart: act.ScheduledStart.Add(slip),
		}

		// Resolved end: authoritative once finished, a live monotonically
		// advancing estimate while running, a pure projection otherwise.
		var resolvedEnd time.Time
		switch view.State {
		case models.StateCompleted:
			resolvedEnd = *act.ActualEnd
		case models.StateRunning:
			resolvedEnd = act.ScheduledEnd
			if now.After(resolvedEnd) {
				resolvedEnd = now
			}
		default:
			resolvedEnd = view.ProjectedStart.Add(act.ScheduledDuration())
		}
		view.ProjectedEnd = resolvedEnd

		if v, ok := act.StartVariance(); ok {
			sv := models.NewSeconds(v)
			view.StartVariance = &sv
			view.StartVarianceDisplay = models.FormatVariance(sv.Duration())
		}
		if v, ok := act.EndVariance(); ok {
			ev := models.NewSeconds(v)
			view.EndVariance = &ev
			view.EndVarianceDisplay = models.FormatVariance(ev.Duration())
		}

		slipOut := time.Duration(0)
		if i+1 < len(acts) {
			nextStart := acts[i+1].ScheduledStart
			if d := resolvedEnd.Sub(nextStart); d > 0 {
				slipOut = d
			}

			// Scheduled break is reported as published, negative and all.
			scheduledBreak := models.NewSeconds(nextStart.Sub(act.ScheduledEnd))
			view.ScheduledBreak = &scheduledBreak

			if view.State == models.StateRunning && resolvedEnd.After(nextStart) {
				overlap := models.NewSeconds(resolvedEnd.Sub(nextStart))
				view.Overlap = &overlap
			} else {
				pb := time.Duration(0)
				if d := nextStart.Sub(resolvedEnd); d > 0 {
					pb = d
				}
				projectedBreak := models.NewSeconds(pb)
				view.ProjectedBreak = &projectedBreak
			}
		}
		view.SlipOut = models.NewSeconds(slipOut)
		slip = slipOut

		if view.State != models.StateUpcoming {
			currentIdx = i
		}
		views = append(views, view)
	}

	if len(views) > 0 {
		last := &views[len(views)-1]
		headline.ScheduledEnd = last.Act.ScheduledEnd
		headline.EstimatedEnd = last.ProjectedEnd
	}
	if currentIdx >= 0 {
		headline.CurrentAct = views[currentIdx].Act.Name
		headline.CurrentState = views[currentIdx].State
		headline.CurrentSlip = views[currentIdx].SlipOut
	}

	return views, headline
}
