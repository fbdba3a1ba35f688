package dto

import "github.com/edusched/timegrid-api/internal/models"

// GridWindowInfo echoes the geometry the layout was computed against so the
// rendering surface and the engine agree on pixel arithmetic.
type GridWindowInfo struct {
	StartHour   int     `json:"startHour"`
	EndHour     int     `json:"endHour"`
	PxPerMinute float64 `json:"pxPerMinute"`
	SnapMinutes int     `json:"snapMinutes"`
	HeightPx    float64 `json:"heightPx"`
}

// PositionedSession couples a session with its computed pixel rectangle.
type PositionedSession struct {
	Session  models.Session         `json:"session"`
	Geometry models.SessionGeometry `json:"geometry"`
}

// DayColumn is one rendered day of the week grid.
type DayColumn struct {
	Day      string              `json:"day"`
	Date     string              `json:"date"`
	Sessions []PositionedSession `json:"sessions"`
}

// SkippedSession reports a session excluded from layout and why, so bad data
// degrades one card rather than the whole view.
type SkippedSession struct {
	SessionID int64  `json:"sessionId"`
	Reason    string `json:"reason"`
}

// WeekGridResponse is the full render model for a class week.
type WeekGridResponse struct {
	ClassID    string           `json:"classId"`
	WeekMonday string           `json:"weekMonday"`
	Window     GridWindowInfo   `json:"window"`
	Days       []DayColumn      `json:"days"`
	Skipped    []SkippedSession `json:"skipped,omitempty"`
}

// CellQuery selects a single day/slot cell of the grid.
type CellQuery struct {
	Day  string `form:"day" validate:"required"`
	Time string `form:"time" validate:"required,datetime=15:04"`
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}
