// AngelaMos | 2026
// clock.go

package core

import (
	"time"
)

// Clock abstracts wall-clock time so services can be tested against
// a controlled time source.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a preset instant; it exists for tests and for
// replaying historical events.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant
}
