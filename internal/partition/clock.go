package partition

import "time"

// Clock supplies the current time to time-bucketed keyers. Injectable so
// tests can pin the bucket boundary.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
