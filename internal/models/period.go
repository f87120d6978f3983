package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DayOfWeek is the backend weekday enum.
type DayOfWeek string

const (
	Sunday    DayOfWeek = "SUNDAY"
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

// daysSundayFirst is indexed by time.Weekday.
var daysSundayFirst = [7]DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayOfWeekFor maps a calendar date onto the weekday enum, Sunday first.
func DayOfWeekFor(d Date) DayOfWeek {
	return daysSundayFirst[d.Weekday()]
}

// ParseDayOfWeek normalises case and validates the enum value.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	day := DayOfWeek(strings.ToUpper(strings.TrimSpace(raw)))
	if !day.Valid() {
		return "", fmt.Errorf("invalid day of week %q", raw)
	}
	return day, nil
}

// Valid reports whether d is one of the seven enum values.
func (d DayOfWeek) Valid() bool {
	return d.Index() >= 0
}

// Index returns the Sunday-first position of d, or -1.
func (d DayOfWeek) Index() int {
	for i, day := range daysSundayFirst {
		if day == d {
			return i
		}
	}
	return -1
}

// Editable reports whether the period editor offers the day. Weekends are accepted from the
// backend but cannot be chosen in the editor.
func (d DayOfWeek) Editable() bool {
	return d != Saturday && d != Sunday && d.Valid()
}

// EditableDays lists the weekdays offered by the period editor in order.
func EditableDays() []DayOfWeek {
	return []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday}
}

var wallClock = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// ValidWallClock reports whether s is HH:MM or HH:MM:SS.
func ValidWallClock(s string) bool {
	return wallClock.MatchString(s)
}

// Period is one timetable slot of a course for a class on a weekday.
type Period struct {
	ID           int64     `json:"id"`
	ClassID      int64     `json:"classId"`
	ClassName    string    `json:"className,omitempty"`
	CourseID     int64     `json:"courseId"`
	CourseName   string    `json:"courseName,omitempty"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	PeriodNumber int       `json:"periodNumber"`
	DayOfWeek    DayOfWeek `json:"dayOfWeek"`
}

// Label is the display name used by the period picker.
func (p Period) Label() string {
	return fmt.Sprintf("Period %d: %s (%s - %s)", p.PeriodNumber, p.CourseName, trimSeconds(p.StartTime), trimSeconds(p.EndTime))
}

func trimSeconds(clock string) string {
	if len(clock) == len("15:04:05") {
		if _, err := time.Parse("15:04:05", clock); err == nil {
			return clock[:5]
		}
	}
	return clock
}
