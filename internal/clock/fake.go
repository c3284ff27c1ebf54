package clock

import "time"

// FakeClock is a Clock pinned to a fixed instant. Tests advance it
// explicitly to cross override windows and billing period boundaries.
type FakeClock struct {
	current time.Time
}

// NewFakeClock pins the clock at t, normalized to UTC to match the
// system clock.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
