// Package clock abstracts the time source used by the admission layer.
//
// The token bucket and usage ledger are pure functions of elapsed time;
// injecting a Clock keeps them deterministic under test. Production code
// uses System(), tests use a Fake advanced by hand.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock provides the current time and timer channels.
// Implementations must return monotonically non-decreasing times
// within a process.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that delivers the current time once
	// d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// systemClock delegates to the time package.
type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// System returns a Clock backed by the real time package.
func System() Clock {
	return systemClock{}
}

// Fake is a manually controlled Clock for tests.
//
// Time only moves when Advance or Set is called. Pending After channels
// fire, in deadline order, as soon as the fake time passes them.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewFake creates a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that fires once the fake time has advanced
// past d. A non-positive d fires immediately.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.now
		return ch
	}

	f.waiters = append(f.waiters, &fakeWaiter{
		deadline: f.now.Add(d),
		ch:       ch,
	})
	return ch
}

// Advance moves the fake time forward by d and fires any timers whose
// deadline has been reached.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLocked(f.now.Add(d))
}

// Set moves the fake time to t. Moving backwards is not supported and
// leaves the clock unchanged.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Before(f.now) {
		return
	}
	f.setLocked(t)
}

func (f *Fake) setLocked(t time.Time) {
	f.now = t

	sort.Slice(f.waiters, func(i, j int) bool {
		return f.waiters[i].deadline.Before(f.waiters[j].deadline)
	})

	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.deadline.After(t) {
			w.ch <- t
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining
}
