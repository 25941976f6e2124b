// Package clock abstracts the wall clock so stage timings can be tested.
package clock

import (
	"sync"
	"time"
)

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Step is a Clock that starts at Start and advances by Interval on every
// call to Now. It is safe for concurrent use.
type Step struct {
	Start    time.Time
	Interval time.Duration

	mu    sync.Mutex
	calls int
}

// Now returns Start plus Interval times the number of earlier calls.
func (s *Step) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.Start.Add(time.Duration(s.calls) * s.Interval)
	s.calls++
	return t
}

// Since returns the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}

var (
	_ Clock = RealClock{}
	_ Clock = (*Step)(nil)
)
