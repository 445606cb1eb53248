package common

import (
	"time"
)

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	startTime time.Time
	Running   bool
}

func NewStopwatch(timeout time.Duration) Stopwatch {
	return Stopwatch{timeout, time.Time{}, false}
}

func (s *Stopwatch) Start() {
	s.Running = true
	s.startTime = time.Now()
}

// Start counting from the provided time instead of the wall clock
func (s *Stopwatch) StartAt(t time.Time) {
	s.Running = true
	s.startTime = t
}

// Check if the timeout has been reached at the provided time.
// A stopwatch that was never started reports its timeout as reached,
// so the very first check always fires
func (s *Stopwatch) TimedOut(now time.Time) bool {
	if !s.Running {
		return true
	}
	return now.Sub(s.startTime) >= s.Timeout
}
