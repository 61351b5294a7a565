// Package timer provides repeating callbacks, the stand-in for hardware
// repeating alarms and PWM wrap interrupts.
package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a running periodic callback.
type Timer interface {
	// Stop cancels the timer. When Stop returns the callback is not running
	// and will not run again. Stop must not be called from the callback.
	Stop()
}

// Scheduler starts periodic callbacks.
type Scheduler interface {
	Every(period time.Duration, fn func()) Timer
}

// Clock is the Scheduler backed by time.Ticker goroutines.
type Clock struct{}

// Every calls fn every period on a dedicated goroutine until stopped.
func (Clock) Every(period time.Duration, fn func()) Timer {
	t := &ticker{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	tk := time.NewTicker(period)
	go func() {
		defer close(t.done)
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tk.C:
				fn()
			}
		}
	}()
	return t
}

type ticker struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (t *ticker) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}

// Manual is a Scheduler for tests: callbacks run only when Fire is called.
type Manual struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

// ManualTimer is a timer created by Manual.
type ManualTimer struct {
	Period  time.Duration
	fn      func()
	stopped atomic.Bool
}

func (m *Manual) Every(period time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &ManualTimer{Period: period, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Fire runs the callback of every active timer once.
func (m *Manual) Fire() {
	m.mu.Lock()
	active := make([]*ManualTimer, 0, len(m.timers))
	for _, t := range m.timers {
		if !t.stopped.Load() {
			active = append(active, t)
		}
	}
	m.mu.Unlock()
	for _, t := range active {
		t.fn()
	}
}

// Active is the number of timers not yet stopped.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped.Load() {
			n++
		}
	}
	return n
}

func (t *ManualTimer) Stop() { t.stopped.Store(true) }
