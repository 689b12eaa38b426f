package trigger

import (
	"sync"
	"time"
)

// Debouncer forwards a burst of requests as one request once no new request
// has arrived for the quiet window, or once maxDelay has passed since the
// burst began. A zero window forwards every request immediately.
type Debouncer struct {
	next     Requester
	window   time.Duration
	maxDelay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	first   time.Time
	stopped bool
}

// NewDebouncer wraps next. maxDelay <= 0 defaults to ten quiet windows.
func NewDebouncer(next Requester, window, maxDelay time.Duration) *Debouncer {
	if maxDelay <= 0 {
		maxDelay = 10 * window
	}
	return &Debouncer{next: next, window: window, maxDelay: maxDelay}
}

// RequestBuild implements Requester.
func (d *Debouncer) RequestBuild() {
	if d.window <= 0 {
		d.next.RequestBuild()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	now := time.Now()
	if d.timer == nil {
		d.first = now
	} else {
		d.timer.Stop()
	}

	wait := d.window
	if deadline := d.first.Add(d.maxDelay); now.Add(wait).After(deadline) {
		wait = max(deadline.Sub(now), 0)
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

// fire forwards the burst scheduled as gen. A timer that lost the race with
// Stop or a newer request finds a different gen and does nothing.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.next.RequestBuild()
}

// Stop drops any pending request.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
