// Package isoweek converts between calendar dates and ISO 8601 week keys in
// a fixed civil time zone.
package isoweek

import (
	"fmt"
	"time"
)

// Key identifies an ISO week.
type Key struct {
	Year int
	Week int
}

func (k Key) String() string {
	return fmt.Sprintf("%d-W%02d", k.Year, k.Week)
}

// Of returns the ISO week containing t as seen in loc.
func Of(t time.Time, loc *time.Location) Key {
	year, week := t.In(loc).ISOWeek()
	return Key{Year: year, Week: week}
}

// Monday returns midnight, in loc, of the Monday starting the ISO week k.
func Monday(k Key, loc *time.Location) time.Time {
	// January 4th is always in week 1.
	jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, (k.Week-1)*7)
}

// Next returns the ISO week following k: Monday plus seven days, re-derived
// so year boundaries and 53-week years come out right.
func Next(k Key, loc *time.Location) Key {
	return Of(Monday(k, loc).AddDate(0, 0, 7), loc)
}

// Window holds the civil boundaries of a weekly game, converted to UTC.
type Window struct {
	Start         time.Time
	End           time.Time
	GuessDeadline time.Time
}

// WindowFor starts at Monday 00:00 local, ends one nanosecond before the
// next Monday and closes guesses on Saturday at deadlineHour local time.
func WindowFor(k Key, loc *time.Location, deadlineHour int) Window {
	monday := Monday(k, loc)
	saturday := monday.AddDate(0, 0, 5)
	deadline := time.Date(saturday.Year(), saturday.Month(), saturday.Day(), deadlineHour, 0, 0, 0, loc)

	return Window{
		Start:         monday.UTC(),
		End:           monday.AddDate(0, 0, 7).Add(-time.Nanosecond).UTC(),
		GuessDeadline: deadline.UTC(),
	}
}
