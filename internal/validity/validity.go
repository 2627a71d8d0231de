// Package validity implements the time-window engine shared by coupon
// and ticket validation.  Both paths must agree on how timestamps parse
// and how windows compare, so neither reimplements it.
package validity

import "time"

// Layout is the timestamp format the central system writes and the one
// this service stamps on activation: date and time with no zone suffix.
const Layout = "2006-01-02T15:04:05"

// Clock supplies the current time.  Handlers take a Clock instead of
// calling time.Now directly so tests can pin "now" to a fixed instant.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a Clock frozen at a single instant, for tests.
type FixedClock struct {
	T time.Time
}

// Now returns the frozen instant.
func (c FixedClock) Now() time.Time { return c.T }

// Parse converts a timestamp string into a time.Time.  Anything that is
// not exactly six numeric date-time fields in Layout form yields ok ==
// false; a bad timestamp downgrades the record to "not valid" instead
// of failing the request that read it.
func Parse(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Format renders t in Layout form, the inverse of Parse.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// IsWithin reports whether now falls inside [from, to] with inclusive
// bounds: now equal to either edge is still valid.
func IsWithin(from, to, now time.Time) bool {
	return !now.Before(from) && !now.After(to)
}

// WindowContains parses both bounds and checks now against them.  An
// unparseable bound makes the window invalid rather than an error.
func WindowContains(from, to string, now time.Time) bool {
	f, ok := Parse(from)
	if !ok {
		return false
	}
	t, ok := Parse(to)
	if !ok {
		return false
	}
	return IsWithin(f, t, now)
}
