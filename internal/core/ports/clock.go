package ports

import "time"

// Clock returns the current time. Handlers take one so tests can pin time.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}
