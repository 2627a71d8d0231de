package validity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptsExactLayout(t *testing.T) {
	got, ok := Parse("2024-06-15T12:30:45")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC), got)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	bad := []string{
		"",
		"not a timestamp",
		"2024-06-15",
		"12:30:45",
		"2024-06-15 12:30:45",
		"2024-06-15T12:30",
		"2024-13-15T12:30:45",
		"2024-06-15T12:30:45Z",
		"2024-06-15T12:30:45.123",
	}
	for _, s := range bad {
		_, ok := Parse(s)
		assert.False(t, ok, "expected %q to be unparseable", s)
	}
}

func TestFormatRoundTrips(t *testing.T) {
	orig := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	back, ok := Parse(Format(orig))
	assert.True(t, ok)
	assert.Equal(t, orig, back)
}

func TestIsWithinBoundsAreInclusive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	assert.True(t, IsWithin(from, to, from), "now == from must be valid")
	assert.True(t, IsWithin(from, to, to), "now == to must be valid")
	assert.True(t, IsWithin(from, to, from.AddDate(0, 6, 0)))
	assert.False(t, IsWithin(from, to, from.Add(-time.Second)))
	assert.False(t, IsWithin(from, to, to.Add(time.Second)))
}

func TestWindowContainsUnparseableBoundIsInvalid(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, WindowContains("2024-01-01T00:00:00", "2024-12-31T23:59:59", now))
	assert.False(t, WindowContains("garbage", "2024-12-31T23:59:59", now))
	assert.False(t, WindowContains("2024-01-01T00:00:00", "garbage", now))
	assert.False(t, WindowContains("", "", now))
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	var c Clock = FixedClock{T: at}
	assert.Equal(t, at, c.Now())
}
