package realtime

import (
	"sync"
	"time"
)

// Scheduler invokes fn every interval until the returned cancel is called.
// Cancel must be safe to call more than once and from within fn.
type Scheduler interface {
	Schedule(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler drives fn from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Schedule(interval time.Duration, fn func()) func() {
	t := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn()
			}
		}
	}()
	return sync.OnceFunc(func() {
		t.Stop()
		close(done)
	})
}

// ManualScheduler only fires when told to. Used by tests and by hosts that
// own their own frame loop.
type ManualScheduler struct {
	mu       sync.Mutex
	fn       func()
	interval time.Duration
	gen      int
}

func (m *ManualScheduler) Schedule(interval time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	gen := m.gen
	m.fn = fn
	m.interval = interval
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen == gen {
			m.fn = nil
		}
	}
}

// Fire runs the scheduled callback up to n times and returns how many ran.
// It stops early once the schedule is cancelled.
func (m *ManualScheduler) Fire(n int) int {
	fired := 0
	for fired < n {
		m.mu.Lock()
		fn := m.fn
		m.mu.Unlock()
		if fn == nil {
			break
		}
		fn()
		fired++
	}
	return fired
}

func (m *ManualScheduler) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn != nil
}

func (m *ManualScheduler) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}
