package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	appErrors "github.com/edusched/timegrid-api/pkg/errors"

	"github.com/edusched/timegrid-api/internal/dto"
	"github.com/edusched/timegrid-api/internal/engine"
	"github.com/edusched/timegrid-api/internal/models"
	"github.com/edusched/timegrid-api/pkg/jobs"
)

// JobTypeMoveAudit tags audit jobs on the background queue.
const JobTypeMoveAudit = "move_audit"

type auditReader interface {
	ListBySession(ctx context.Context, sessionID int64) ([]models.MoveAudit, error)
}

type placementRepo interface {
	FindByID(ctx context.Context, id int64) (*models.Session, error)
	ListForDate(ctx context.Context, exec sqlx.ExtContext, date string) ([]models.Session, error)
	UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id int64, date, startTime, endTime string, modified types.JSONText) (*models.Session, error)
	Delete(ctx context.Context, id int64) error
	Duplicate(ctx context.Context, id int64) (*models.Session, error)
}

// PlacementService validates and commits session relocations. A move is
// revalidated inside the transaction that writes it, so two concurrent moves
// onto the same slot cannot both succeed. At most one move per session is in
// flight at any time.
type PlacementService struct {
	db       *sqlx.DB
	repo     placementRepo
	auditLog auditReader
	sessions *SessionService
	audits   *jobs.Queue
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

func NewPlacementService(db *sqlx.DB, repo placementRepo, auditLog auditReader, sessions *SessionService, audits *jobs.Queue, metrics *MetricsService, logger *zap.Logger) *PlacementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{
		db:       db,
		repo:     repo,
		auditLog: auditLog,
		sessions: sessions,
		audits:   audits,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
		inFlight: make(map[int64]struct{}),
	}
}

// resolveTarget turns a request target into a concrete (date, start, end).
// When the end time is omitted the session keeps its current duration.
func (s *PlacementService) resolveTarget(session *models.Session, target dto.PlacementTarget) (string, string, string, error) {
	var date string
	switch {
	case target.Date != "":
		if _, err := engine.ParseLocalDate(target.Date); err != nil {
			return "", "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid target date %q", target.Date))
		}
		date = target.Date
	case target.Day != "" && target.WeekMonday != "":
		resolved, err := engine.DateForDay(target.WeekMonday, target.Day)
		if err != nil {
			return "", "", "", appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		date = resolved
	default:
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, "target requires a date, or a day plus the week's Monday")
	}

	start := target.StartTime
	end := target.EndTime
	if end == "" {
		duration, err := engine.DurationMinutes(session.StartTime, session.EndTime)
		if err != nil {
			return "", "", "", appErrors.Clone(appErrors.ErrValidation, "session has malformed times and no end time was supplied")
		}
		startMin, err := engine.TimeToMinutes(start)
		if err != nil {
			return "", "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", start))
		}
		end = engine.FormatMinutes(startMin + duration)
	}

	startMin, err := engine.TimeToMinutes(start)
	if err != nil {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", start))
	}
	endMin, err := engine.TimeToMinutes(end)
	if err != nil {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end time %q", end))
	}
	if startMin >= endMin {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}

	return date, start, end, nil
}

// Validate checks a candidate placement without committing anything. It is
// the server-side twin of the live drag feedback.
func (s *PlacementService) Validate(ctx context.Context, req dto.ValidatePlacementRequest) (*dto.ValidatePlacementResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	session, err := s.repo.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", req.SessionID))
	}

	date, start, end, err := s.resolveTarget(session, req.Target)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListForDate(ctx, s.db, date)
	if err != nil {
		s.logger.Error("load sessions for validation failed", zap.String("date", date), zap.Error(err))
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load sessions for validation")
	}

	proposal := engine.Proposal{
		Date:  date,
		Start: start,
		End:   end,
		Scope: engine.Scope{ClassID: session.ClassID, RoomID: session.RoomID, TeacherID: session.TeacherID},
	}
	conflicts := engine.FindConflicts(proposal, existing, session.ID)
	s.metrics.ObserveValidation(len(conflicts) == 0)

	parsed, _ := engine.ParseLocalDate(date)
	return &dto.ValidatePlacementResponse{
		Target: models.DropTarget{
			Day:   engine.WeekdayName(parsed),
			Date:  date,
			Time:  start,
			Valid: len(conflicts) == 0,
		},
		Conflicts: conflicts,
	}, nil
}

// Move relocates a session to the target slot. The slot is rechecked inside
// the write transaction; an occupied slot rejects the move and leaves the
// session untouched. Failed commits are reported, never retried.
func (s *PlacementService) Move(ctx context.Context, sessionID int64, req dto.MoveSessionRequest, requestID string) (*models.Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	s.mu.Lock()
	if _, busy := s.inFlight[sessionID]; busy {
		s.mu.Unlock()
		return nil, appErrors.ErrMoveInFlight
	}
	s.inFlight[sessionID] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}()

	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", sessionID))
	}

	date, start, end, err := s.resolveTarget(session, req.Target)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.metrics.ObserveMoveCommit(MoveResultFailed)
		return nil, appErrors.Wrap(err, "COMMIT_FAILED", 502, "failed to open move transaction")
	}
	defer tx.Rollback()

	existing, err := s.repo.ListForDate(ctx, tx, date)
	if err != nil {
		s.metrics.ObserveMoveCommit(MoveResultFailed)
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to recheck target slot")
	}

	proposal := engine.Proposal{
		Date:  date,
		Start: start,
		End:   end,
		Scope: engine.Scope{ClassID: session.ClassID, RoomID: session.RoomID, TeacherID: session.TeacherID},
	}
	if conflicts := engine.FindConflicts(proposal, existing, sessionID); len(conflicts) > 0 {
		s.metrics.ObserveMoveCommit(MoveResultRejected)
		detail := &models.PlacementConflictError{
			Type:     "PLACEMENT_CONFLICT",
			Message:  fmt.Sprintf("slot %s %s-%s is occupied by %s", date, start, end, conflicts[0].CourseCode),
			Conflict: conflicts[0],
			Errors:   conflicts,
		}
		return nil, appErrors.Wrap(detail, "SLOT_OCCUPIED", 409, detail.Message)
	}

	modified := mergeModifiedFlags(session.Modified)

	updated, err := s.repo.UpdatePlacement(ctx, tx, sessionID, date, start, end, modified)
	if err != nil {
		s.metrics.ObserveMoveCommit(MoveResultFailed)
		s.logger.Error("move write failed", zap.Int64("session_id", sessionID), zap.Error(err))
		return nil, appErrors.Wrap(err, "COMMIT_FAILED", 502, "failed to write session move")
	}

	if err := tx.Commit(); err != nil {
		s.metrics.ObserveMoveCommit(MoveResultFailed)
		return nil, appErrors.Wrap(err, "COMMIT_FAILED", 502, "failed to commit session move")
	}

	s.metrics.ObserveMoveCommit(MoveResultCommitted)
	s.sessions.InvalidateSnapshots(ctx, session.ClassID)
	s.enqueueAudit(session, updated, requestID)

	s.logger.Info("session moved",
		zap.Int64("session_id", sessionID),
		zap.String("date", date),
		zap.String("start_time", start),
		zap.String("end_time", end))

	return updated, nil
}

// Delete removes a session.
func (s *PlacementService) Delete(ctx context.Context, id int64) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", id))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to delete session")
	}
	s.sessions.InvalidateSnapshots(ctx, session.ClassID)
	return nil
}

// Duplicate clones a session in place. The copy lands on the same slot and
// is expected to be moved immediately afterwards.
func (s *PlacementService) Duplicate(ctx context.Context, id int64) (*models.Session, error) {
	copied, err := s.repo.Duplicate(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", id))
	}
	s.sessions.InvalidateSnapshots(ctx, copied.ClassID)
	return copied, nil
}

// History returns committed moves for the session, newest first.
func (s *PlacementService) History(ctx context.Context, sessionID int64) ([]models.MoveAudit, error) {
	if _, err := s.repo.FindByID(ctx, sessionID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", sessionID))
	}
	if s.auditLog == nil {
		return []models.MoveAudit{}, nil
	}
	audits, err := s.auditLog.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load move history")
	}
	return audits, nil
}

func (s *PlacementService) enqueueAudit(before, after *models.Session, requestID string) {
	if s.audits == nil {
		return
	}
	fromDate := ""
	if before.Date != nil {
		fromDate = *before.Date
	}
	toDate := ""
	if after.Date != nil {
		toDate = *after.Date
	}
	audit := models.MoveAudit{
		SessionID: before.ID,
		FromDate:  fromDate,
		FromStart: before.StartTime,
		FromEnd:   before.EndTime,
		ToDate:    toDate,
		ToStart:   after.StartTime,
		ToEnd:     after.EndTime,
		RequestID: requestID,
	}
	if err := s.audits.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeMoveAudit, Payload: audit}); err != nil {
		s.logger.Warn("audit enqueue failed", zap.Int64("session_id", before.ID), zap.Error(err))
	}
}

// mergeModifiedFlags sets the time override flag, preserving the room and
// teacher flags already present on the row.
func mergeModifiedFlags(current types.JSONText) types.JSONText {
	var flags models.ModifiedFlags
	if len(current) > 0 {
		_ = json.Unmarshal(current, &flags)
	}
	flags.Time = true
	out, _ := json.Marshal(flags)
	return types.JSONText(out)
}
