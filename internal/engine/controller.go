package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/edusched/timegrid-api/internal/models"
)

// GestureState enumerates controller phases.
type GestureState int

const (
	StateIdle GestureState = iota
	StateDragging
	StateCommitting
)

// Controller-level sentinel errors.
var (
	ErrNoGesture      = errors.New("no active gesture")
	ErrGestureActive  = errors.New("a gesture is already active")
	ErrCommitPending  = errors.New("commit pending for this session")
	ErrTargetOccupied = errors.New("target slot occupied")
	ErrOutsideWindow  = errors.New("target overruns day window")
	ErrNoDropTarget   = errors.New("no drop target computed")
	ErrNoWeekAnchor   = errors.New("no week anchor set")
	ErrEmptyCommit    = errors.New("commit returned no session")
)

// CommitFunc persists an accepted relocation and returns the authoritative
// updated session. Implementations re-validate server-side; the controller
// applies only the returned values, never the locally computed ones.
type CommitFunc func(ctx context.Context, sessionID int64, date, start, end string) (*models.Session, error)

// ScopeFunc derives the conflict scope for a dragged session. The default
// checks the session's own class schedule.
type ScopeFunc func(models.Session) Scope

// GridWindow captures the geometry of the surface the controller translates
// pointer positions against.
type GridWindow struct {
	StartHour    int
	EndHour      int
	PxPerMinute  float64
	SnapMinutes  int
	ContainerTop float64
}

// DragController orchestrates a move gesture over an immutable session
// snapshot: Idle -> Dragging -> (Committing | Idle). During Dragging every
// pointer move recomputes the drop target from scratch; no domain state
// mutates until the external commit succeeds. Not safe for concurrent use;
// one controller serves one editing surface.
type DragController struct {
	window  GridWindow
	commit  CommitFunc
	scopeOf ScopeFunc

	sessions   []models.Session
	weekMonday string

	state    GestureState
	dragged  *models.Session
	target   *models.DropTarget
	inFlight map[int64]bool
}

// NewDragController builds a controller around a commit collaborator.
func NewDragController(window GridWindow, commit CommitFunc) *DragController {
	if window.PxPerMinute <= 0 {
		window.PxPerMinute = 1
	}
	if window.SnapMinutes <= 0 {
		window.SnapMinutes = 10
	}
	return &DragController{
		window:  window,
		commit:  commit,
		scopeOf: func(s models.Session) Scope { return Scope{ClassID: s.ClassID} },

		inFlight: make(map[int64]bool),
	}
}

// SetScopeFunc overrides the conflict scope derivation.
func (c *DragController) SetScopeFunc(fn ScopeFunc) {
	if fn != nil {
		c.scopeOf = fn
	}
}

// LoadSnapshot replaces the working session collection wholesale. The input
// is copied; callers keep ownership of their slice.
func (c *DragController) LoadSnapshot(sessions []models.Session) {
	snapshot := make([]models.Session, len(sessions))
	copy(snapshot, sessions)
	c.sessions = snapshot
}

// Snapshot returns a copy of the current working collection.
func (c *DragController) Snapshot() []models.Session {
	out := make([]models.Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// SetWeekAnchor records the Monday of the currently displayed week. Recurring
// day targets are resolved against this anchor only; there is no default.
func (c *DragController) SetWeekAnchor(monday string) error {
	if _, err := DateForDay(monday, "MONDAY"); err != nil {
		return err
	}
	c.weekMonday = monday
	return nil
}

// State exposes the current gesture phase.
func (c *DragController) State() GestureState {
	return c.state
}

// Begin picks up a session, transitioning Idle -> Dragging. A session with an
// outstanding commit cannot start a new gesture.
func (c *DragController) Begin(sessionID int64) error {
	if c.state != StateIdle {
		return ErrGestureActive
	}
	if c.inFlight[sessionID] {
		return ErrCommitPending
	}
	for i := range c.sessions {
		if c.sessions[i].ID == sessionID {
			s := c.sessions[i]
			c.dragged = &s
			c.state = StateDragging
			c.target = nil
			return nil
		}
	}
	return fmt.Errorf("session %d not in snapshot", sessionID)
}

// Track recomputes the drop target from a pointer position. Idempotent: each
// call is a pure function of the pointer position and the latest snapshot,
// so it may run at animation-frame rate without accumulating state.
func (c *DragController) Track(day string, pixelY float64) (models.DropTarget, error) {
	start := SnapToGrid(pixelY, c.window.ContainerTop, c.window.StartHour, c.window.EndHour, c.window.PxPerMinute, c.window.SnapMinutes)
	return c.TrackAt(day, start)
}

// TrackAt recomputes the drop target from an already snapped start time.
// This is the entry point for callers that carry domain time instead of
// pointer geometry, such as server-side validation of an explicit target.
func (c *DragController) TrackAt(day, start string) (models.DropTarget, error) {
	if c.state != StateDragging || c.dragged == nil {
		return models.DropTarget{}, ErrNoGesture
	}
	if c.weekMonday == "" {
		return models.DropTarget{}, ErrNoWeekAnchor
	}

	date, err := DateForDay(c.weekMonday, day)
	if err != nil {
		return models.DropTarget{}, err
	}
	duration, err := DurationMinutes(c.dragged.StartTime, c.dragged.EndTime)
	if err != nil {
		return models.DropTarget{}, err
	}
	startMin, err := TimeToMinutes(start)
	if err != nil {
		return models.DropTarget{}, err
	}
	end := startMin + duration

	valid := end <= c.window.EndHour*60
	if valid {
		proposal := Proposal{
			Date:  date,
			Start: start,
			End:   FormatMinutes(end),
			Scope: c.scopeOf(*c.dragged),
		}
		valid = IsValidPlacement(proposal, c.sessions, c.dragged.ID)
	}

	offset, err := TopOffsetPx(start, c.window.StartHour, c.window.PxPerMinute)
	if err != nil {
		return models.DropTarget{}, err
	}

	target := models.DropTarget{
		Day:         day,
		Date:        date,
		Time:        start,
		PixelOffset: offset,
		Valid:       valid,
	}
	c.target = &target
	return target, nil
}

// Cancel discards the gesture with no side effects: Dragging -> Idle, the
// working collection bit-for-bit identical to before the pick-up.
func (c *DragController) Cancel() {
	if c.state != StateDragging {
		return
	}
	c.state = StateIdle
	c.dragged = nil
	c.target = nil
}

// Drop finishes the gesture. The target is re-validated authoritatively
// under the same predicate Track applies: it must fit the day window and be
// conflict-free. A failing target aborts with no commit call and no
// mutation. A valid target is handed to the commit collaborator, and only
// on success is the local snapshot updated with the server-returned session.
// A failed commit leaves everything at its pre-drag value.
func (c *DragController) Drop(ctx context.Context) (*models.Session, error) {
	if c.state != StateDragging || c.dragged == nil {
		return nil, ErrNoGesture
	}
	if c.target == nil {
		c.Cancel()
		return nil, ErrNoDropTarget
	}

	dragged := *c.dragged
	target := *c.target

	duration, err := DurationMinutes(dragged.StartTime, dragged.EndTime)
	if err != nil {
		c.Cancel()
		return nil, err
	}
	startMin, err := TimeToMinutes(target.Time)
	if err != nil {
		c.Cancel()
		return nil, err
	}
	endMin := startMin + duration
	if endMin > c.window.EndHour*60 {
		c.Cancel()
		return nil, ErrOutsideWindow
	}
	end := FormatMinutes(endMin)

	proposal := Proposal{Date: target.Date, Start: target.Time, End: end, Scope: c.scopeOf(dragged)}
	if !IsValidPlacement(proposal, c.sessions, dragged.ID) {
		c.Cancel()
		return nil, ErrTargetOccupied
	}
	if c.commit == nil {
		c.Cancel()
		return nil, errors.New("no commit collaborator configured")
	}

	c.state = StateCommitting
	c.inFlight[dragged.ID] = true

	updated, err := c.commit(ctx, dragged.ID, target.Date, target.Time, end)

	delete(c.inFlight, dragged.ID)
	c.state = StateIdle
	c.dragged = nil
	c.target = nil

	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrEmptyCommit
	}

	c.applyServerSession(*updated)
	return updated, nil
}

// applyServerSession replaces the matching session in a fresh copy of the
// snapshot (replace-by-id, never in-place element mutation).
func (c *DragController) applyServerSession(updated models.Session) {
	next := make([]models.Session, len(c.sessions))
	copy(next, c.sessions)
	for i := range next {
		if next[i].ID == updated.ID {
			next[i] = updated
			break
		}
	}
	c.sessions = next
}
