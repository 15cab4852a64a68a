package clock

import "time"

// Clock supplies "today" so that date-driven lifecycle calculations are
// deterministic under test. All engine dates are UTC day-granular.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

type realClock struct{}

// New returns a Clock backed by the system time in UTC.
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func (realClock) Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// TestClock is a fixed clock for deterministic tests; advance it explicitly.
type TestClock struct {
	now time.Time
}

func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now.UTC()}
}

func (c *TestClock) Now() time.Time {
	return c.now
}

func (c *TestClock) Today() time.Time {
	return time.Date(c.now.Year(), c.now.Month(), c.now.Day(), 0, 0, 0, 0, time.UTC)
}

// Advance moves the clock forward by d.
func (c *TestClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// SetToday pins the clock to midnight UTC of the given date.
func (c *TestClock) SetToday(year int, month time.Month, day int) {
	c.now = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
