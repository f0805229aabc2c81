// Package clock provides the time source for computed defaults.
package clock

import (
	"sync"
	"time"

	"github.com/artpar/contractgate/ports"
)

// Real reads the system clock in UTC.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.Clock = Real{}

// Fake is a controllable clock for tests. A stepping fake advances by a
// fixed step after every read, so each computed default sees a distinct
// time.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

var _ ports.Clock = (*Fake)(nil)

// NewFake creates a fake clock fixed at t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// NewStepping creates a fake clock starting at t that moves forward by
// step after every Now.
func NewStepping(t time.Time, step time.Duration) *Fake {
	return &Fake{current: t, step: step}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.current
	f.current = f.current.Add(f.step)
	return now
}

// Set sets the fake current time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
