// Package timer provides a single-flight coalescing timer.
//
// Arm schedules a fire after a fixed quiet period. Arming again while a fire
// is scheduled does not start a second timer; it marks the current window
// invalid, and when that window elapses the timer re-arms itself for another
// full period instead of notifying the owner. The owner's callback therefore
// runs once per burst, at least one quiet period after the last Arm.
package timer

import (
	"sync"
	"time"
)

// Timer is a coalescing, restartable delay.
type Timer struct {
	delay time.Duration
	fire  func()

	mu        sync.Mutex
	scheduled bool
	valid     bool
	gen       uint64
	pending   *time.Timer

	// fireMu serializes owner callbacks from consecutive windows.
	fireMu sync.Mutex
}

// New creates an idle Timer that calls fire once per settled window.
func New(delay time.Duration, fire func()) *Timer {
	return &Timer{
		delay: delay,
		fire:  fire,
	}
}

// Delay returns the configured quiet period.
func (t *Timer) Delay() time.Duration {
	return t.delay
}

// Arm starts a window when idle, or invalidates the scheduled one.
func (t *Timer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scheduled {
		t.valid = false
		return
	}
	t.scheduled = true
	t.valid = true
	t.schedule()
}

// Pending reports whether a window is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduled
}

// Stop cancels the scheduled window, if any, and returns the timer to idle.
// A fire from the cancelled window that is already running is ignored.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
	t.scheduled = false
	t.valid = false
}

// schedule must be called with mu held.
func (t *Timer) schedule() {
	gen := t.gen
	t.pending = time.AfterFunc(t.delay, func() { t.onFire(gen) })
}

func (t *Timer) onFire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.scheduled {
		t.mu.Unlock()
		return
	}
	if !t.valid {
		// Activity during the window: extend by another full period.
		t.valid = true
		t.schedule()
		t.mu.Unlock()
		return
	}
	t.scheduled = false
	t.pending = nil
	t.gen++
	t.mu.Unlock()

	// The owner may call Arm from inside the callback, so mu is released first.
	t.fireMu.Lock()
	defer t.fireMu.Unlock()
	t.fire()
}
