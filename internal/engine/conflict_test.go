package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/timegrid-api/internal/models"
)

func existingMonday() []models.Session {
	return []models.Session{
		{ID: 1, CourseCode: "INF101", Date: strPtr("2026-01-05"), StartTime: "08:00", EndTime: "10:00", ClassID: "class-1", RoomID: "room-a", TeacherID: "teach-1"},
		{ID: 2, CourseCode: "MAT201", Date: strPtr("2026-01-05"), StartTime: "14:00", EndTime: "16:00", ClassID: "class-1", RoomID: "room-b", TeacherID: "teach-2"},
	}
}

func TestIsValidPlacementIdenticalSlotRejected(t *testing.T) {
	proposal := Proposal{
		Date:  "2026-01-05",
		Start: "08:00",
		End:   "10:00",
		Scope: Scope{ClassID: "class-1"},
	}
	assert.False(t, IsValidPlacement(proposal, existingMonday(), 0))
}

func TestIsValidPlacementFreeSlotAccepted(t *testing.T) {
	// entirely between the two existing sessions
	proposal := Proposal{
		Date:  "2026-01-05",
		Start: "10:00",
		End:   "12:00",
		Scope: Scope{ClassID: "class-1"},
	}
	assert.True(t, IsValidPlacement(proposal, existingMonday(), 0))

	// entirely after everything that day
	proposal.Start, proposal.End = "16:00", "18:00"
	assert.True(t, IsValidPlacement(proposal, existingMonday(), 0))
}

func TestIsValidPlacementExcludesMovedSession(t *testing.T) {
	// session 1 dropped back onto its own slot conflicts with nothing
	proposal := Proposal{
		Date:  "2026-01-05",
		Start: "08:00",
		End:   "10:00",
		Scope: Scope{ClassID: "class-1"},
	}
	assert.True(t, IsValidPlacement(proposal, existingMonday(), 1))
}

func TestIsValidPlacementIgnoresOtherDates(t *testing.T) {
	proposal := Proposal{
		Date:  "2026-01-06",
		Start: "08:00",
		End:   "10:00",
		Scope: Scope{ClassID: "class-1"},
	}
	assert.True(t, IsValidPlacement(proposal, existingMonday(), 0))
}

func TestIsValidPlacementScopeDimensions(t *testing.T) {
	proposal := Proposal{Date: "2026-01-05", Start: "09:00", End: "11:00"}

	proposal.Scope = Scope{ClassID: "class-2"}
	assert.True(t, IsValidPlacement(proposal, existingMonday(), 0))

	proposal.Scope = Scope{RoomID: "room-a"}
	conflicts := FindConflicts(proposal, existingMonday(), 0)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDimensionRoom, conflicts[0].Dimension)

	proposal.Scope = Scope{TeacherID: "teach-1"}
	conflicts = FindConflicts(proposal, existingMonday(), 0)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDimensionTeacher, conflicts[0].Dimension)
}

func TestIsValidPlacementEmptyScopeMatchesEverything(t *testing.T) {
	proposal := Proposal{Date: "2026-01-05", Start: "09:00", End: "11:00"}
	assert.False(t, IsValidPlacement(proposal, existingMonday(), 0))
}

func TestIsValidPlacementIdempotent(t *testing.T) {
	proposal := Proposal{
		Date:  "2026-01-05",
		Start: "09:00",
		End:   "11:00",
		Scope: Scope{ClassID: "class-1"},
	}
	existing := existingMonday()

	first := IsValidPlacement(proposal, existing, 0)
	second := IsValidPlacement(proposal, existing, 0)
	assert.Equal(t, first, second)
	assert.False(t, first)
}

func TestFindConflictsSkipsRecurringAndMalformed(t *testing.T) {
	existing := []models.Session{
		{ID: 1, DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "10:00", ClassID: "class-1"},
		{ID: 2, Date: strPtr("2026-01-05"), StartTime: "broken", EndTime: "10:00", ClassID: "class-1"},
	}
	proposal := Proposal{
		Date:  "2026-01-05",
		Start: "08:00",
		End:   "10:00",
		Scope: Scope{ClassID: "class-1"},
	}
	assert.Empty(t, FindConflicts(proposal, existing, 0))
}

func TestFindConflictsMalformedProposal(t *testing.T) {
	proposal := Proposal{Date: "2026-01-05", Start: "10:00", End: "08:00", Scope: Scope{ClassID: "class-1"}}
	assert.Empty(t, FindConflicts(proposal, existingMonday(), 0))
}

func TestMalformedProposalIsNeverValid(t *testing.T) {
	cases := []Proposal{
		{Date: "2026-01-05", Start: "10:00", End: "08:00"}, // inverted
		{Date: "2026-01-05", Start: "10:00", End: "10:00"}, // zero-length
		{Date: "2026-01-05", Start: "8h30", End: "10:00"},  // unparseable start
		{Date: "2026-01-05", Start: "08:00", End: "25:00"}, // unparseable end
	}
	for _, proposal := range cases {
		proposal.Scope = Scope{ClassID: "class-1"}
		assert.False(t, IsValidPlacement(proposal, existingMonday(), 0), "%s-%s", proposal.Start, proposal.End)
	}
}
