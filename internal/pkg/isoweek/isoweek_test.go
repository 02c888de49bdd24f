package isoweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func copenhagen(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)
	return loc
}

func TestOf(t *testing.T) {
	loc := copenhagen(t)

	tests := []struct {
		name string
		at   time.Time
		want Key
	}{
		{"mid year", time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC), Key{2026, 42}},
		{"january belongs to previous year", time.Date(2021, time.January, 3, 12, 0, 0, 0, time.UTC), Key{2020, 53}},
		{"december belongs to next year", time.Date(2024, time.December, 30, 12, 0, 0, 0, time.UTC), Key{2025, 1}},
		// Sunday 23:30 UTC is already Monday in Copenhagen.
		{"local time decides", time.Date(2026, time.October, 18, 23, 30, 0, 0, time.UTC), Key{2026, 43}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Of(tc.at, loc))
		})
	}
}

func TestMonday(t *testing.T) {
	loc := copenhagen(t)

	got := Monday(Key{2026, 42}, loc)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, loc), got)

	got = Monday(Key{2020, 53}, loc)
	assert.Equal(t, time.Date(2020, time.December, 28, 0, 0, 0, 0, loc), got)
}

func TestNext(t *testing.T) {
	loc := copenhagen(t)

	assert.Equal(t, Key{2026, 43}, Next(Key{2026, 42}, loc))
	assert.Equal(t, Key{2021, 1}, Next(Key{2020, 53}, loc))
	assert.Equal(t, Key{2027, 1}, Next(Key{2026, 53}, loc))
	assert.Equal(t, Key{2026, 1}, Next(Key{2025, 52}, loc))
}

func TestWindowFor(t *testing.T) {
	loc := copenhagen(t)

	w := WindowFor(Key{2026, 42}, loc, 17)

	// CEST is UTC+2 in October before the switch.
	assert.Equal(t, time.Date(2026, time.October, 11, 22, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, time.October, 17, 15, 0, 0, 0, time.UTC), w.GuessDeadline)
	assert.True(t, w.End.After(w.GuessDeadline))
	assert.Equal(t, w.Start.Add(7*24*time.Hour-time.Nanosecond), w.End)

	// Week 44 spans the switch back to CET on October 25th.
	w = WindowFor(Key{2026, 44}, loc, 17)
	assert.Equal(t, time.Date(2026, time.October, 25, 23, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, time.October, 31, 16, 0, 0, 0, time.UTC), w.GuessDeadline)
}
