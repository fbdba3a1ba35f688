package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Day names follow the surface's uppercase convention. Indexes mirror the
// grid columns: Sunday is 0, Saturday is 6.
var dayIndexByName = map[string]int{
	"SUNDAY":    0,
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
}

var dayNameByWeekday = map[time.Weekday]string{
	time.Sunday:    "SUNDAY",
	time.Monday:    "MONDAY",
	time.Tuesday:   "TUESDAY",
	time.Wednesday: "WEDNESDAY",
	time.Thursday:  "THURSDAY",
	time.Friday:    "FRIDAY",
	time.Saturday:  "SATURDAY",
}

// DayIndex resolves a day name to its column index.
func DayIndex(name string) (int, bool) {
	idx, ok := dayIndexByName[strings.ToUpper(strings.TrimSpace(name))]
	return idx, ok
}

// WeekdayName returns the uppercase day name for a local date.
func WeekdayName(t time.Time) string {
	return dayNameByWeekday[t.Weekday()]
}

// ParseLocalDate parses a strict YYYY-MM-DD calendar date from its numeric
// components. Dates are reconstructed via time.Date rather than parsed as
// instants, so a session never shifts by a day across timezones.
func ParseLocalDate(value string) (time.Time, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", value)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %q: no such calendar day", value)
	}
	return t, nil
}

// FormatLocalDate renders a local date as YYYY-MM-DD.
func FormatLocalDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// DateForDay resolves a day name into the concrete date of the week anchored
// at weekMonday. Sunday belongs to the end of the displayed week, hence the
// special 6-day offset for index 0.
func DateForDay(weekMonday, day string) (string, error) {
	idx, ok := DayIndex(day)
	if !ok {
		return "", fmt.Errorf("unknown day %q", day)
	}
	anchor, err := ParseLocalDate(weekMonday)
	if err != nil {
		return "", err
	}
	if anchor.Weekday() != time.Monday {
		return "", fmt.Errorf("week anchor %s is not a Monday", weekMonday)
	}

	diff := idx - 1
	if idx == 0 {
		diff = 6
	}
	return FormatLocalDate(anchor.AddDate(0, 0, diff)), nil
}
