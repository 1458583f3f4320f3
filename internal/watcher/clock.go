package watcher

import "time"

// Clock abstracts time so the loop can be driven by tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NextDelay returns how long to wait after a cycle that took elapsed so
// that cycle starts are interval apart. A cycle longer than interval is
// followed immediately by the next one.
func NextDelay(interval, elapsed time.Duration) time.Duration {
	return max(interval-elapsed, 0)
}
