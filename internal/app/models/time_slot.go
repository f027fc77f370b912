package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeSlot is returned when a time slot does not start before it ends.
var ErrInvalidTimeSlot = errors.New("invalid timeslot: start time must be before end time")

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// MinutesPerDay bounds TimeOfDay values.
const MinutesPerDay = 24 * 60

// NewTimeOfDay builds a TimeOfDay from an hour and a minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay is NewTimeOfDay for constant inputs.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return NewTimeOfDay(hour, minute)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// TimeSlot is the weekly meeting time of a course. Start is always before End.
type TimeSlot struct {
	DayOfWeek time.Weekday `json:"dayOfWeek"`
	StartTime TimeOfDay    `json:"startTime"`
	EndTime   TimeOfDay    `json:"endTime"`
}

// NewTimeSlot validates and builds a TimeSlot.
func NewTimeSlot(day time.Weekday, start, end TimeOfDay) (TimeSlot, error) {
	if day < time.Sunday || day > time.Saturday {
		return TimeSlot{}, fmt.Errorf("invalid day of week %d", day)
	}
	if start < 0 || end > MinutesPerDay || start >= end {
		return TimeSlot{}, fmt.Errorf("%w: %s-%s", ErrInvalidTimeSlot, start, end)
	}
	return TimeSlot{DayOfWeek: day, StartTime: start, EndTime: end}, nil
}

// Overlaps reports whether both slots fall on the same day and their
// half-open [start, end) intervals intersect.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	return s.StartTime < other.EndTime && other.StartTime < s.EndTime
}

// String renders the slot as "MON 09:00-10:30".
func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", strings.ToUpper(s.DayOfWeek.String()[:3]), s.StartTime, s.EndTime)
}

// DayName returns the upper-case weekday name stored in the database ("MONDAY").
func (s TimeSlot) DayName() string {
	return strings.ToUpper(s.DayOfWeek.String())
}

// ParseWeekday converts "MONDAY"/"monday"/"Mon" into a time.Weekday.
func ParseWeekday(value string) (time.Weekday, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if normalized == name || normalized == name[:3] {
			return day, nil
		}
	}
	return 0, fmt.Errorf("invalid day of week %q", value)
}
