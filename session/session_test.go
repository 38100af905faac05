package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// utc builds a 2024-01-01-anchored instant; Jan 1 2024 is a Monday.
func utc(day time.Weekday, hour, min int) time.Time {
	base := time.Date(2024, 1, 1, hour, min, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(day-time.Monday+7)%7)
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	w, err := ParseWindow("07:30-16:00")
	require.NoError(t, err)
	assert.Equal(t, Window{Start: 7*60 + 30, End: 16 * 60}, w)
	assert.Equal(t, "07:30-16:00", w.String())

	for _, bad := range []string{"", "07:30", "7h-16h", "07:30-16:00-18:00", "25:00-26:00", "09:00-09:00"} {
		_, err := ParseWindow(bad)
		assert.Error(t, err, "window %q", bad)
	}
}

func TestWindowContains(t *testing.T) {
	t.Parallel()

	w, err := ParseWindow("07:00-16:00")
	require.NoError(t, err)

	assert.True(t, w.Contains(utc(time.Monday, 7, 0)), "start is inclusive")
	assert.True(t, w.Contains(utc(time.Monday, 12, 30)))
	assert.True(t, w.Contains(utc(time.Monday, 15, 59)))
	assert.False(t, w.Contains(utc(time.Monday, 16, 0)), "end is exclusive")
	assert.False(t, w.Contains(utc(time.Monday, 6, 59)))
}

// A window whose end precedes its start spans midnight, like the late New
// York into Sydney stretch.
func TestWindowWrapsMidnight(t *testing.T) {
	t.Parallel()

	w, err := ParseWindow("22:00-02:00")
	require.NoError(t, err)

	assert.True(t, w.Contains(utc(time.Monday, 22, 0)))
	assert.True(t, w.Contains(utc(time.Monday, 23, 59)))
	assert.True(t, w.Contains(utc(time.Tuesday, 0, 0)))
	assert.True(t, w.Contains(utc(time.Tuesday, 1, 59)))
	assert.False(t, w.Contains(utc(time.Tuesday, 2, 0)))
	assert.False(t, w.Contains(utc(time.Monday, 12, 0)))
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]time.Weekday{
		"Mon":    time.Monday,
		"monday": time.Monday,
		"FRI":    time.Friday,
		" sun ":  time.Sunday,
	} {
		got, err := ParseWeekday(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseWeekday("someday")
	assert.Error(t, err)
}

func TestGateWeekdaysAndWindows(t *testing.T) {
	t.Parallel()

	g, err := New(
		[]string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		[]string{"07:00-16:00"},
	)
	require.NoError(t, err)

	assert.True(t, g.Open(utc(time.Monday, 9, 0)))
	assert.True(t, g.Open(utc(time.Friday, 15, 59)))
	assert.False(t, g.Open(utc(time.Saturday, 9, 0)), "weekend blocked")
	assert.False(t, g.Open(utc(time.Monday, 18, 0)), "after hours blocked")
}

func TestGateMultipleWindows(t *testing.T) {
	t.Parallel()

	g, err := New(nil, []string{"07:00-10:00", "13:00-16:00"})
	require.NoError(t, err)

	assert.True(t, g.Open(utc(time.Sunday, 8, 0)), "no weekday restriction")
	assert.False(t, g.Open(utc(time.Monday, 11, 0)), "lunch gap blocked")
	assert.True(t, g.Open(utc(time.Monday, 13, 0)))
}

// The zero configuration never blocks: gating is opt-in.
func TestGateEmptyIsAlwaysOpen(t *testing.T) {
	t.Parallel()

	g, err := New(nil, nil)
	require.NoError(t, err)

	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.True(t, g.Open(utc(d, 3, 33)))
	}
	assert.True(t, g.OpenNow())
}

func TestGateRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := New([]string{"Funday"}, nil)
	assert.Error(t, err)

	_, err = New(nil, []string{"9-17"})
	assert.Error(t, err)
}

// Gate decisions are UTC decisions regardless of the instant's zone.
func TestGateNormalizesToUTC(t *testing.T) {
	t.Parallel()

	g, err := New(nil, []string{"07:00-16:00"})
	require.NoError(t, err)

	ny := time.FixedZone("EST", -5*60*60)
	// 05:00 EST is 10:00 UTC: inside the window.
	assert.True(t, g.Open(time.Date(2024, 1, 1, 5, 0, 0, 0, ny)))
	// 13:00 EST is 18:00 UTC: outside.
	assert.False(t, g.Open(time.Date(2024, 1, 1, 13, 0, 0, 0, ny)))
}
