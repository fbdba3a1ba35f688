package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/timegrid-api/internal/models"
)

func TestDayKeyOfPrefersConcreteDate(t *testing.T) {
	// 2026-01-05 is a Monday; a contradictory recurring day must lose
	s := models.Session{ID: 1, Date: strPtr("2026-01-05"), DayOfWeek: "FRIDAY"}
	key, err := DayKeyOf(s)
	require.NoError(t, err)
	assert.Equal(t, "MONDAY", key)
}

func TestDayKeyOfFallsBackToRecurringDay(t *testing.T) {
	s := models.Session{ID: 2, DayOfWeek: "wednesday"}
	key, err := DayKeyOf(s)
	require.NoError(t, err)
	assert.Equal(t, "WEDNESDAY", key)
}

func TestDayKeyOfAmbiguousPlacement(t *testing.T) {
	_, err := DayKeyOf(models.Session{ID: 3})
	assert.ErrorIs(t, err, ErrAmbiguousPlacement)

	_, err = DayKeyOf(models.Session{ID: 4, DayOfWeek: "SOMEDAY"})
	assert.ErrorIs(t, err, ErrAmbiguousPlacement)
}

func TestDayKeyOfRejectsMalformedDate(t *testing.T) {
	_, err := DayKeyOf(models.Session{ID: 5, Date: strPtr("2026-13-40")})
	assert.Error(t, err)
}

func TestParseLocalDate(t *testing.T) {
	d, err := ParseLocalDate("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", FormatLocalDate(d))
	assert.Equal(t, "MONDAY", WeekdayName(d))

	for _, bad := range []string{"", "2026-1-5", "05-01-2026", "2026/01/05", "2026-02-30"} {
		_, err := ParseLocalDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateForDay(t *testing.T) {
	monday := "2026-01-05"

	cases := []struct {
		day  string
		want string
	}{
		{"MONDAY", "2026-01-05"},
		{"TUESDAY", "2026-01-06"},
		{"SATURDAY", "2026-01-10"},
		// Sunday is column 0 but belongs to the end of the displayed week
		{"SUNDAY", "2026-01-11"},
	}
	for _, tc := range cases {
		got, err := DateForDay(monday, tc.day)
		require.NoError(t, err, tc.day)
		assert.Equal(t, tc.want, got, tc.day)
	}
}

func TestDateForDayRejectsNonMondayAnchor(t *testing.T) {
	_, err := DateForDay("2026-01-06", "MONDAY")
	assert.Error(t, err)
}

func TestSessionsForCellTolerance(t *testing.T) {
	sessions := []models.Session{
		{ID: 1, Date: strPtr("2026-01-05"), StartTime: "08:05", EndTime: "10:00"},
		{ID: 2, Date: strPtr("2026-01-05"), StartTime: "08:15", EndTime: "10:00"},
		{ID: 3, Date: strPtr("2026-01-06"), StartTime: "08:00", EndTime: "10:00"},
		{ID: 4, DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:00"},
		{ID: 5},
	}

	got := SessionsForCell(sessions, "MONDAY", "08:00", 10)
	require.Len(t, got, 2)
	// original order preserved
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
}

func TestSessionsForCellRejectsMalformedSlot(t *testing.T) {
	sessions := []models.Session{{ID: 1, DayOfWeek: "MONDAY", StartTime: "08:00"}}
	assert.Nil(t, SessionsForCell(sessions, "MONDAY", "8am", 10))
}

func TestSessionsForDate(t *testing.T) {
	sessions := []models.Session{
		{ID: 1, Date: strPtr("2026-01-05")},
		{ID: 2, Date: strPtr("2026-01-06")},
		{ID: 3, DayOfWeek: "MONDAY"},
	}

	got := SessionsForDate(sessions, "2026-01-05")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}
