package orchestrator

import "time"

// Clock abstracts time for the debounce and retry timers so tests can
// drive them deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is an armed timer. Stop reports whether it fired or was stopped
// before firing, matching time.Timer semantics.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
