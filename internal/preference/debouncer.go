package preference

import (
	"sync"
	"sync/atomic"
	"time"
)

// Debouncer coalesces bursts of Trigger calls into a single call of fn,
// made once no Trigger has arrived for the quiet window.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64 // bumped on every Trigger, stale timers compare against it
	pending bool
	stopped bool

	callMu   sync.Mutex  // held while fn runs
	inflight atomic.Bool // set under mu when a timer claims the call
	fn       func()
}

// NewDebouncer creates a Debouncer that runs fn after delay of quiet.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger arms the timer, cancelling and re-arming any pending one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.inflight.Store(true)
	d.callMu.Lock()
	d.mu.Unlock()

	defer d.callMu.Unlock()
	defer d.inflight.Store(false)
	d.fn()
}

// Flush runs a pending call immediately on the caller's goroutine. A call
// already in flight is waited for instead. It reports whether a call ran or
// was waited for.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	ran := d.pending
	waited := d.inflight.Load()
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.callMu.Lock()
	defer d.callMu.Unlock()
	if ran {
		d.fn()
	}
	return ran || waited
}

// Stop cancels any pending call and ignores later triggers. A call already
// in flight is waited for.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	// wait for an in-flight call
	d.callMu.Lock()
	defer d.callMu.Unlock()
}
