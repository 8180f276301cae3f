package domain

import "time"

// Clock is the external time source read once per operation. Tests inject a
// fake to drive auction expiry deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
