package board

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last of a burst of calls, once delay has passed
// without another.
type Debouncer struct {
	mu    sync.Mutex
	clock clockwork.Clock
	delay time.Duration
	timer clockwork.Timer
}

func NewDebouncer(clock clockwork.Clock, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Call schedules fn, cancelling whatever was scheduled before.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, fn)
}

// Stop cancels the pending call, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
