// Package clock abstracts time for components whose behavior depends on the
// current date, so tests can pin it.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System implements Clock using time.Now.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	TS time.Time
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time {
	return f.TS
}
