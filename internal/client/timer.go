package client

import (
	"sync"
	"time"
)

// TimerWheel is the shared scheduling facility spec.md §5 describes as
// "timers run on a shared wheel and post work into the same serialized
// region." It hands out ScheduledTask handles backed by time.AfterFunc;
// callers are responsible for re-arming (spec.md's sweeper and flush timer
// both reschedule themselves from inside their own fired callback).
type TimerWheel struct {
	mu     sync.Mutex
	closed bool
}

// NewTimerWheel returns a ready-to-use timer wheel.
func NewTimerWheel() *TimerWheel { return &TimerWheel{} }

// Schedule arms fn to run once after d elapses, returning a handle that can
// be stopped or reset. Scheduling on a closed wheel is a silent no-op handle
// (shutdown races are expected: a producer closing concurrently with a
// sweeper re-arming itself must not panic).
func (w *TimerWheel) Schedule(d time.Duration, fn func()) *ScheduledTask {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return &ScheduledTask{}
	}
	return &ScheduledTask{t: time.AfterFunc(d, fn)}
}

// Close marks the wheel closed; tasks already scheduled still fire, but new
// Schedule calls become no-ops. Matches spec.md §4.10: close cancels timers
// (callers Stop() their own tasks) but must not race future scheduling.
func (w *TimerWheel) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// ScheduledTask is a cancellable, rearmable handle to a single scheduled
// callback.
type ScheduledTask struct {
	t *time.Timer
}

// Stop cancels the task if it hasn't fired yet. Safe to call multiple times
// and on a nil-backed (post-close) task.
func (s *ScheduledTask) Stop() {
	if s == nil || s.t == nil {
		return
	}
	s.t.Stop()
}

// Reset re-arms the task to fire after d, as if newly scheduled. Safe to
// call on a fired or stopped task per time.Timer.Reset semantics.
func (s *ScheduledTask) Reset(d time.Duration) {
	if s == nil || s.t == nil {
		return
	}
	s.t.Reset(d)
}
