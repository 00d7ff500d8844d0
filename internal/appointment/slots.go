package appointment

import (
	"fmt"
	"time"
)

// TimeSlot is an "HH:MM" label out of the daily slot catalog.
type TimeSlot string

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DailySlots is the fixed slot catalog in display order. 13:00-14:00 is lunch.
var DailySlots = []TimeSlot{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"12:00", "12:30", "14:00", "14:30", "15:00", "15:30",
	"16:00", "16:30", "17:00", "17:30",
}

var slotIndex = func() map[TimeSlot]int {
	m := make(map[TimeSlot]int, len(DailySlots))
	for i, s := range DailySlots {
		m[s] = i
	}
	return m
}()

func (t TimeSlot) Valid() bool {
	_, ok := slotIndex[t]
	return ok
}

// StartOn returns the slot's start instant on date, in loc.
func (t TimeSlot) StartOn(date time.Time, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse(TimeLayout, string(t))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot %q: %w", t, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// ParseDate parses YYYY-MM-DD into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// DateOf truncates an instant to its calendar day in loc, returned as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
