package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SessionType classifies a course session on the timetable surface.
type SessionType string

const (
	SessionTypeCM   SessionType = "CM"   // lecture
	SessionTypeTD   SessionType = "TD"   // tutorial
	SessionTypeTP   SessionType = "TP"   // practical
	SessionTypeTPE  SessionType = "TPE"  // personal work
	SessionTypeEXAM SessionType = "EXAM" // exam
	SessionTypeCONF SessionType = "CONF" // conference
)

// ValidSessionType reports whether the value belongs to the fixed enumeration.
func ValidSessionType(t SessionType) bool {
	switch t {
	case SessionTypeCM, SessionTypeTD, SessionTypeTP, SessionTypeTPE, SessionTypeEXAM, SessionTypeCONF:
		return true
	default:
		return false
	}
}

// Session is the atomic schedulable unit. A session is placed either by a
// concrete calendar date or by a recurring day-of-week plus an abstract time
// slot reference, never both contradictorily. Dates are local calendar dates
// in YYYY-MM-DD form; times are zero-padded HH:MM wall-clock values.
type Session struct {
	ID          int64       `db:"id" json:"id"`
	CourseCode  string      `db:"course_code" json:"course_code"`
	CourseName  string      `db:"course_name" json:"course_name"`
	SessionType SessionType `db:"session_type" json:"session_type"`

	Date        *string `db:"session_date" json:"date,omitempty"`
	DayOfWeek   string  `db:"day_of_week" json:"day_of_week,omitempty"`
	TimeSlotRef *string `db:"time_slot_ref" json:"time_slot_ref,omitempty"`
	StartTime   string  `db:"start_time" json:"start_time"`
	EndTime     string  `db:"end_time" json:"end_time"`

	ClassID   string `db:"class_id" json:"class_id"`
	RoomID    string `db:"room_id" json:"room_id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`

	Modified  types.JSONText `db:"modified" json:"modified,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ModifiedFlags records which fields were manually overridden from a
// generator-produced baseline. Informational only.
type ModifiedFlags struct {
	Room    bool `json:"room"`
	Teacher bool `json:"teacher"`
	Time    bool `json:"time"`
}

// SessionFilter describes query params for listing sessions.
type SessionFilter struct {
	ClassID     string
	TeacherID   string
	RoomID      string
	SessionType string
	DateFrom    string
	DateTo      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// ConflictDimension names the resource axis on which two sessions collide.
type ConflictDimension string

const (
	ConflictDimensionClass   ConflictDimension = "CLASS"
	ConflictDimensionRoom    ConflictDimension = "ROOM"
	ConflictDimensionTeacher ConflictDimension = "TEACHER"
)

// PlacementConflict describes an existing session that blocks a placement.
type PlacementConflict struct {
	SessionID  int64             `json:"session_id"`
	CourseCode string            `json:"course_code"`
	Date       string            `json:"date"`
	StartTime  string            `json:"start_time"`
	EndTime    string            `json:"end_time"`
	ClassID    string            `json:"class_id"`
	RoomID     string            `json:"room_id"`
	TeacherID  string            `json:"teacher_id"`
	Dimension  ConflictDimension `json:"dimension"`
}

// PlacementConflictError is returned when a proposed placement collides with
// existing sessions. The conflict detail is surfaced verbatim to the caller.
type PlacementConflictError struct {
	Type     string              `json:"type"`
	Message  string              `json:"message"`
	Conflict PlacementConflict   `json:"conflict"`
	Errors   []PlacementConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *PlacementConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
