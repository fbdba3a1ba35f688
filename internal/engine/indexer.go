package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edusched/timegrid-api/internal/models"
)

// ErrAmbiguousPlacement marks a session that carries neither a concrete date
// nor a recoverable day-of-week. Such sessions are excluded from rendering
// and logged for operator attention, never silently guessed.
var ErrAmbiguousPlacement = errors.New("ambiguous placement")

// DayKeyOf resolves the calendar day a session occupies. A concrete date
// wins over the recurring day-of-week fallback.
func DayKeyOf(s models.Session) (string, error) {
	if s.Date != nil && *s.Date != "" {
		t, err := ParseLocalDate(*s.Date)
		if err != nil {
			return "", err
		}
		return WeekdayName(t), nil
	}
	if s.DayOfWeek != "" {
		name := strings.ToUpper(strings.TrimSpace(s.DayOfWeek))
		if _, ok := DayIndex(name); !ok {
			return "", fmt.Errorf("%w: unknown day %q", ErrAmbiguousPlacement, s.DayOfWeek)
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: session %d has neither date nor day of week", ErrAmbiguousPlacement, s.ID)
}

// SessionsForCell filters sessions down to those occupying the given
// day/slot cell. Start times within toleranceMinutes of the slot label match,
// absorbing minor grid/data misalignment. Input order is preserved; the
// caller sorts if a stable display order is needed.
func SessionsForCell(sessions []models.Session, day, slotStart string, toleranceMinutes int) []models.Session {
	slotMin, err := TimeToMinutes(slotStart)
	if err != nil {
		return nil
	}
	want := strings.ToUpper(strings.TrimSpace(day))

	var out []models.Session
	for _, s := range sessions {
		key, err := DayKeyOf(s)
		if err != nil || key != want {
			continue
		}
		start, err := TimeToMinutes(s.StartTime)
		if err != nil {
			continue
		}
		diff := start - slotMin
		if diff < 0 {
			diff = -diff
		}
		if diff <= toleranceMinutes {
			out = append(out, s)
		}
	}
	return out
}

// SessionsForDate returns sessions placed on the exact concrete date, for
// day and month views where a concrete date is authoritative.
func SessionsForDate(sessions []models.Session, date string) []models.Session {
	var out []models.Session
	for _, s := range sessions {
		if s.Date != nil && *s.Date == date {
			out = append(out, s)
		}
	}
	return out
}
