package ts

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock wraps clockwork.Clock so that Now is a little more convenient and
// tests can swap in a fake.
type Clock struct {
	realClock clockwork.Clock
}

func NewRealClock() *Clock {
	return New(clockwork.NewRealClock())
}

func New(c clockwork.Clock) *Clock {
	return &Clock{realClock: c}
}

// Now provides a timestamp truncated to the millisecond, which is as fine
// as anyone cares about when a button was pressed.
func (c *Clock) Now() time.Time {
	return c.realClock.Now().Truncate(time.Millisecond)
}

// Since is time.Since on this clock, untruncated.
func (c *Clock) Since(t time.Time) time.Duration {
	return c.realClock.Since(t)
}

func (c *Clock) RealClock() clockwork.Clock {
	return c.realClock
}
