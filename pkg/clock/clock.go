package clock

import "time"

// Clock supplies the current instant. Services take a Clock instead of
// calling time.Now so SLA evaluation stays deterministic under test.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns the current UTC instant.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant.
type Fixed struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return f.Instant
}
