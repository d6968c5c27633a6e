package testfixtures

import (
	"sync"
	"time"
)

// Clock is a settable time source for services and the semester status.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the instant the clock is parked at.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for constructors that take a func() time.Time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Current is Now, read where the test does not expect time to move.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// Set parks the clock at t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// AdvanceDays moves the clock by whole calendar days, keeping the wall time,
// and returns the new instant. Semester windows are counted in days.
func (c *Clock) AdvanceDays(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.AddDate(0, 0, days)
	return c.current
}

// SetDate parks the clock at hour:00 UTC on the given date.
func (c *Clock) SetDate(year int, month time.Month, day, hour int) time.Time {
	t := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	c.Set(t)
	return t
}
