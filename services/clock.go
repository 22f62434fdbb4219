package services

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock returns UTC time truncated to milliseconds, the precision both backends store.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// FixedClock always returns T. Used by tests and tools that replay history.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
