package dto

import "github.com/edusched/timegrid-api/internal/models"

// PlacementTarget names a candidate slot. Either a concrete date or a
// day-of-week plus the Monday of the displayed week must be supplied; the
// engine never assumes a default week anchor.
type PlacementTarget struct {
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Day        string `json:"day" validate:"omitempty,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	WeekMonday string `json:"weekMonday" validate:"omitempty,datetime=2006-01-02"`
	StartTime  string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime    string `json:"endTime" validate:"omitempty,datetime=15:04"`
}

// ValidatePlacementRequest asks whether a session could move to the target.
type ValidatePlacementRequest struct {
	SessionID int64           `json:"sessionId" validate:"required,min=1"`
	Target    PlacementTarget `json:"target" validate:"required"`
}

// ValidatePlacementResponse mirrors the live drag feedback: the resolved
// drop target plus the sessions blocking it, if any.
type ValidatePlacementResponse struct {
	Target    models.DropTarget          `json:"target"`
	Conflicts []models.PlacementConflict `json:"conflicts,omitempty"`
}

// MoveSessionRequest commits a relocation for a session.
type MoveSessionRequest struct {
	Target PlacementTarget `json:"target" validate:"required"`
}
