package engine

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for malformed geometry input. Callers are expected to skip
// the offending session and keep rendering the rest of the surface.
var (
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrInvalidInterval   = errors.New("invalid interval")
)

// TimeToMinutes parses a zero-padded HH:MM wall-clock value into minutes
// since midnight.
func TimeToMinutes(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
		}
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	return hour*60 + minute, nil
}

// FormatMinutes renders minutes since midnight as zero-padded HH:MM.
func FormatMinutes(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// DurationMinutes returns the occupied interval length. The end must be
// strictly after the start.
func DurationMinutes(start, end string) (int, error) {
	startMin, err := TimeToMinutes(start)
	if err != nil {
		return 0, err
	}
	endMin, err := TimeToMinutes(end)
	if err != nil {
		return 0, err
	}
	if endMin <= startMin {
		return 0, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return endMin - startMin, nil
}

// TopOffsetPx converts a start time into a vertical pixel offset within the
// day window. Sessions starting before the window yield a negative offset;
// callers clip or hide out-of-window sessions.
func TopOffsetPx(start string, windowStartHour int, pxPerMinute float64) (float64, error) {
	startMin, err := TimeToMinutes(start)
	if err != nil {
		return 0, err
	}
	return float64(startMin-windowStartHour*60) * pxPerMinute, nil
}

// HeightPx computes a session's rendered height, clamped to minPx so very
// short sessions stay clickable.
func HeightPx(start, end string, pxPerMinute, minPx float64) (float64, error) {
	duration, err := DurationMinutes(start, end)
	if err != nil {
		return 0, err
	}
	return math.Max(float64(duration)*pxPerMinute, minPx), nil
}

// SnapToGrid translates a raw pointer Y position into a wall-clock time,
// rounded to the nearest snapMinutes mark and clamped into the day window
// [windowStartHour:00, windowEndHour:00). This is the sole translation point
// between pointer geometry and domain time.
func SnapToGrid(pixelY, containerTop float64, windowStartHour, windowEndHour int, pxPerMinute float64, snapMinutes int) string {
	if pxPerMinute <= 0 {
		pxPerMinute = 1
	}
	if snapMinutes <= 0 {
		snapMinutes = 10
	}

	minutes := (pixelY - containerTop) / pxPerMinute
	total := float64(windowStartHour*60) + minutes
	snapped := int(math.Round(total/float64(snapMinutes))) * snapMinutes

	lo := windowStartHour * 60
	hi := windowEndHour*60 - snapMinutes
	if hi < lo {
		hi = lo
	}
	if snapped < lo {
		snapped = lo
	}
	if snapped > hi {
		snapped = hi
	}
	return FormatMinutes(snapped)
}
