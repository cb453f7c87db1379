// Package clock supplies the current time with an optional process-wide
// override for deterministic demos and tests.
//
// The override applies to every consumer holding the same Clock until it is
// explicitly cleared; it is not per-session. Components receive a *Clock
// handle explicitly rather than reaching for ambient time.
package clock

import (
	"sync"
	"time"
)

// Clock resolves "now", honouring a process-wide override when one is set.
// Safe for concurrent use.
type Clock struct {
	mu         sync.RWMutex
	override   time.Time
	overridden bool
}

// New returns a clock tracking live wall time.
func New() *Clock {
	return &Clock{}
}

// Now returns the override when set, otherwise the wall clock.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.overridden {
		return c.override
	}
	return time.Now()
}

// SetOverride pins Now to t until ClearOverride is called.
func (c *Clock) SetOverride(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = t
	c.overridden = true
}

// ClearOverride resumes live time.
func (c *Clock) ClearOverride() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = time.Time{}
	c.overridden = false
}

// Override reports the current override, if any.
func (c *Clock) Override() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.override, c.overridden
}
