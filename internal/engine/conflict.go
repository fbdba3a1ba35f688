package engine

import (
	"github.com/edusched/timegrid-api/internal/models"
)

// Scope selects which resource keys participate in a conflict check. A
// session conflicts when any supplied key matches; empty fields are ignored.
// An entirely empty scope matches every session on the date, which rejects
// rather than allows in the face of a careless caller.
type Scope struct {
	ClassID   string
	RoomID    string
	TeacherID string
}

func (s Scope) empty() bool {
	return s.ClassID == "" && s.RoomID == "" && s.TeacherID == ""
}

// Proposal describes a candidate relocation target for a session.
type Proposal struct {
	Date  string
	Start string
	End   string
	Scope Scope
}

// IsValidPlacement reports whether the proposed slot is free of conflicts
// with existing sessions on the same date and scope, excluding the session
// being moved. Pure and idempotent: safe to call at pointer-move frequency
// during a drag and once more authoritatively before committing the drop.
// A false result is expected control flow ("slot occupied"), not an error.
// A proposal whose times cannot be parsed is never valid.
func IsValidPlacement(p Proposal, existing []models.Session, excludeID int64) bool {
	if !p.wellFormed() {
		return false
	}
	return len(FindConflicts(p, existing, excludeID)) == 0
}

func (p Proposal) wellFormed() bool {
	start, err := TimeToMinutes(p.Start)
	if err != nil {
		return false
	}
	end, err := TimeToMinutes(p.End)
	return err == nil && end > start
}

// FindConflicts returns the sessions blocking the proposal, each tagged with
// the resource dimension it collides on, for structured user feedback. A
// proposal that cannot be parsed has no identifiable blockers and returns
// none; IsValidPlacement still reports it invalid.
func FindConflicts(p Proposal, existing []models.Session, excludeID int64) []models.PlacementConflict {
	start, err := TimeToMinutes(p.Start)
	if err != nil {
		return nil
	}
	end, err := TimeToMinutes(p.End)
	if err != nil || end <= start {
		return nil
	}

	var conflicts []models.PlacementConflict
	for _, s := range existing {
		if s.ID == excludeID {
			continue
		}
		if s.Date == nil || *s.Date != p.Date {
			continue
		}
		dimension, ok := scopeDimension(p.Scope, s)
		if !ok {
			continue
		}
		otherStart, err := TimeToMinutes(s.StartTime)
		if err != nil {
			continue
		}
		otherEnd, err := TimeToMinutes(s.EndTime)
		if err != nil || otherEnd <= otherStart {
			continue
		}
		if Overlaps(start, end, otherStart, otherEnd) {
			conflicts = append(conflicts, models.PlacementConflict{
				SessionID:  s.ID,
				CourseCode: s.CourseCode,
				Date:       *s.Date,
				StartTime:  s.StartTime,
				EndTime:    s.EndTime,
				ClassID:    s.ClassID,
				RoomID:     s.RoomID,
				TeacherID:  s.TeacherID,
				Dimension:  dimension,
			})
		}
	}
	return conflicts
}

func scopeDimension(scope Scope, s models.Session) (models.ConflictDimension, bool) {
	if scope.empty() {
		return models.ConflictDimensionClass, true
	}
	if scope.ClassID != "" && scope.ClassID == s.ClassID {
		return models.ConflictDimensionClass, true
	}
	if scope.RoomID != "" && scope.RoomID == s.RoomID {
		return models.ConflictDimensionRoom, true
	}
	if scope.TeacherID != "" && scope.TeacherID == s.TeacherID {
		return models.ConflictDimensionTeacher, true
	}
	return "", false
}
