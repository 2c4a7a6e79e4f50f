package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fireRecorder struct {
	mu    sync.Mutex
	times []time.Time
}

func (r *fireRecorder) record() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, time.Now())
}

func (r *fireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.times)
}

func (r *fireRecorder) first() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.times[0]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestTimer_SingleArmFiresOnce(t *testing.T) {
	rec := &fireRecorder{}
	tm := New(20*time.Millisecond, rec.record)

	armed := time.Now()
	tm.Arm()
	if !tm.Pending() {
		t.Fatal("Pending() = false right after Arm")
	}

	waitFor(t, time.Second, func() bool { return rec.count() == 1 })
	if elapsed := rec.first().Sub(armed); elapsed < 20*time.Millisecond {
		t.Errorf("fired after %v, want >= 20ms", elapsed)
	}

	time.Sleep(60 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
	if tm.Pending() {
		t.Error("Pending() = true after fire")
	}
}

func TestTimer_BurstCoalesces(t *testing.T) {
	const delay = 30 * time.Millisecond
	rec := &fireRecorder{}
	tm := New(delay, rec.record)

	var lastArm time.Time
	for i := 0; i < 10; i++ {
		tm.Arm()
		lastArm = time.Now()
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, time.Second, func() bool { return rec.count() >= 1 })
	if elapsed := rec.first().Sub(lastArm); elapsed < delay {
		t.Errorf("fired %v after last Arm, want >= %v", elapsed, delay)
	}

	time.Sleep(3 * delay)
	if got := rec.count(); got != 1 {
		t.Errorf("burst fired %d times, want 1", got)
	}
}

func TestTimer_SeparateBurstsFireSeparately(t *testing.T) {
	rec := &fireRecorder{}
	tm := New(10*time.Millisecond, rec.record)

	tm.Arm()
	waitFor(t, time.Second, func() bool { return rec.count() == 1 })

	tm.Arm()
	waitFor(t, time.Second, func() bool { return rec.count() == 2 })
}

func TestTimer_StopCancels(t *testing.T) {
	rec := &fireRecorder{}
	tm := New(20*time.Millisecond, rec.record)

	tm.Arm()
	tm.Stop()
	if tm.Pending() {
		t.Error("Pending() = true after Stop")
	}

	time.Sleep(60 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Errorf("fired %d times after Stop, want 0", got)
	}

	// The timer is reusable after Stop.
	tm.Arm()
	waitFor(t, time.Second, func() bool { return rec.count() == 1 })
}

func TestTimer_ArmFromCallback(t *testing.T) {
	var fires atomic.Int32
	var tm *Timer
	tm = New(5*time.Millisecond, func() {
		if fires.Add(1) == 1 {
			tm.Arm()
		}
	})

	tm.Arm()
	waitFor(t, time.Second, func() bool { return fires.Load() == 2 })
}

func TestTimer_CallbacksNeverOverlap(t *testing.T) {
	var running, overlaps atomic.Int32
	var fires atomic.Int32
	var tm *Timer
	tm = New(time.Millisecond, func() {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		fires.Add(1)
	})

	for i := 0; i < 5; i++ {
		tm.Arm()
		time.Sleep(3 * time.Millisecond)
	}
	waitFor(t, time.Second, func() bool { return !tm.Pending() && running.Load() == 0 && fires.Load() > 0 })
	time.Sleep(20 * time.Millisecond)

	if overlaps.Load() != 0 {
		t.Errorf("callbacks overlapped %d times", overlaps.Load())
	}
}
