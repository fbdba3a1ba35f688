package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/edusched/timegrid-api/pkg/errors"

	"github.com/edusched/timegrid-api/internal/dto"
	"github.com/edusched/timegrid-api/internal/models"
)

type stubPlacementRepo struct {
	session  *models.Session
	existing []models.Session

	updateCalls int
	updatedDate string
	updatedEnd  string
	updateErr   error
}

func (r *stubPlacementRepo) FindByID(_ context.Context, id int64) (*models.Session, error) {
	if r.session == nil || r.session.ID != id {
		return nil, fmt.Errorf("sql: no rows in result set")
	}
	copied := *r.session
	return &copied, nil
}

func (r *stubPlacementRepo) ListForDate(_ context.Context, _ sqlx.ExtContext, _ string) ([]models.Session, error) {
	return r.existing, nil
}

func (r *stubPlacementRepo) UpdatePlacement(_ context.Context, _ sqlx.ExtContext, id int64, date, startTime, endTime string, _ types.JSONText) (*models.Session, error) {
	r.updateCalls++
	r.updatedDate = date
	r.updatedEnd = endTime
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	copied := *r.session
	copied.ID = id
	copied.Date = &date
	copied.StartTime = startTime
	copied.EndTime = endTime
	copied.DayOfWeek = ""
	return &copied, nil
}

func (r *stubPlacementRepo) Delete(_ context.Context, id int64) error {
	if r.session == nil || r.session.ID != id {
		return fmt.Errorf("delete session %d: no rows affected", id)
	}
	return nil
}

func (r *stubPlacementRepo) Duplicate(_ context.Context, id int64) (*models.Session, error) {
	if r.session == nil || r.session.ID != id {
		return nil, fmt.Errorf("sql: no rows in result set")
	}
	copied := *r.session
	copied.ID = id + 1
	return &copied, nil
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func fixtureSession() *models.Session {
	date := "2026-01-05"
	return &models.Session{
		ID:          1,
		CourseCode:  "MATH101",
		CourseName:  "Analysis",
		SessionType: models.SessionTypeCM,
		Date:        &date,
		StartTime:   "08:00",
		EndTime:     "10:00",
		ClassID:     "class-1",
		RoomID:      "room-a",
		TeacherID:   "teach-1",
	}
}

func blockingSession() models.Session {
	date := "2026-01-06"
	return models.Session{
		ID:         2,
		CourseCode: "PHYS201",
		Date:       &date,
		StartTime:  "09:00",
		EndTime:    "11:00",
		ClassID:    "class-1",
		RoomID:     "room-b",
		TeacherID:  "teach-2",
	}
}

func newPlacementService(db *sqlx.DB, repo placementRepo) *PlacementService {
	sessions := NewSessionService(&stubSessionReader{}, nil, nil, cacheConfig(), nil)
	return NewPlacementService(db, repo, nil, sessions, nil, nil, nil)
}

func TestMoveCommitsOnFreeSlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &stubPlacementRepo{session: fixtureSession()}
	svc := newPlacementService(db, repo)

	mock.ExpectBegin()
	mock.ExpectCommit()

	updated, err := svc.Move(context.Background(), 1, dto.MoveSessionRequest{
		Target: dto.PlacementTarget{Day: "TUESDAY", WeekMonday: "2026-01-05", StartTime: "08:00"},
	}, "req-1")
	require.NoError(t, err)

	assert.Equal(t, "2026-01-06", *updated.Date)
	assert.Equal(t, "08:00", updated.StartTime)
	assert.Equal(t, "10:00", updated.EndTime) // duration preserved
	assert.Equal(t, 1, repo.updateCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveRejectedWhenSlotOccupied(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &stubPlacementRepo{session: fixtureSession(), existing: []models.Session{blockingSession()}}
	svc := newPlacementService(db, repo)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Move(context.Background(), 1, dto.MoveSessionRequest{
		Target: dto.PlacementTarget{Date: "2026-01-06", StartTime: "09:00", EndTime: "11:00"},
	}, "req-2")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, "SLOT_OCCUPIED", appErr.Code)
	assert.Equal(t, 409, appErr.Status)

	var conflictErr *models.PlacementConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, int64(2), conflictErr.Conflict.SessionID)
	assert.Equal(t, models.ConflictDimensionClass, conflictErr.Conflict.Dimension)

	assert.Equal(t, 0, repo.updateCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveRefusedWhileAnotherMoveIsInFlight(t *testing.T) {
	db, _ := newMockDB(t)
	repo := &stubPlacementRepo{session: fixtureSession()}
	svc := newPlacementService(db, repo)

	svc.mu.Lock()
	svc.inFlight[1] = struct{}{}
	svc.mu.Unlock()

	_, err := svc.Move(context.Background(), 1, dto.MoveSessionRequest{
		Target: dto.PlacementTarget{Date: "2026-01-06", StartTime: "08:00"},
	}, "req-3")
	require.Error(t, err)
	assert.Equal(t, "MOVE_IN_FLIGHT", appErrors.FromError(err).Code)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestMoveCommitFailureIsReportedNotRetried(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &stubPlacementRepo{session: fixtureSession(), updateErr: fmt.Errorf("connection reset")}
	svc := newPlacementService(db, repo)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Move(context.Background(), 1, dto.MoveSessionRequest{
		Target: dto.PlacementTarget{Date: "2026-01-07", StartTime: "08:00"},
	}, "req-4")
	require.Error(t, err)
	assert.Equal(t, "COMMIT_FAILED", appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.updateCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveRequiresResolvableTarget(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newPlacementService(db, &stubPlacementRepo{session: fixtureSession()})

	cases := []dto.PlacementTarget{
		{StartTime: "08:00"},                                        // no date, no day
		{Day: "TUESDAY", StartTime: "08:00"},                        // day without week anchor
		{Date: "2026-01-06", StartTime: "11:00", EndTime: "09:00"},  // inverted range
		{Day: "TUESDAY", WeekMonday: "2026-01-06", StartTime: "08:00"}, // anchor is not a Monday
	}
	for _, target := range cases {
		_, err := svc.Move(context.Background(), 1, dto.MoveSessionRequest{Target: target}, "")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
	}
}

func TestValidateReportsConflictsWithoutWriting(t *testing.T) {
	db, _ := newMockDB(t)
	repo := &stubPlacementRepo{session: fixtureSession(), existing: []models.Session{blockingSession()}}
	svc := newPlacementService(db, repo)

	resp, err := svc.Validate(context.Background(), dto.ValidatePlacementRequest{
		SessionID: 1,
		Target:    dto.PlacementTarget{Date: "2026-01-06", StartTime: "10:00", EndTime: "12:00"},
	})
	require.NoError(t, err)
	assert.False(t, resp.Target.Valid)
	assert.Equal(t, "TUESDAY", resp.Target.Day)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, int64(2), resp.Conflicts[0].SessionID)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestValidateAcceptsFreeSlot(t *testing.T) {
	db, _ := newMockDB(t)
	repo := &stubPlacementRepo{session: fixtureSession(), existing: []models.Session{blockingSession()}}
	svc := newPlacementService(db, repo)

	// Back to back with the blocker: half-open intervals do not collide.
	resp, err := svc.Validate(context.Background(), dto.ValidatePlacementRequest{
		SessionID: 1,
		Target:    dto.PlacementTarget{Date: "2026-01-06", StartTime: "11:00", EndTime: "13:00"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Target.Valid)
	assert.Empty(t, resp.Conflicts)
}

func TestDeleteUnknownSessionReturnsNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newPlacementService(db, &stubPlacementRepo{})

	err := svc.Delete(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestDuplicateReturnsNewCopy(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newPlacementService(db, &stubPlacementRepo{session: fixtureSession()})

	copied, err := svc.Duplicate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), copied.ID)
	assert.Equal(t, "MATH101", copied.CourseCode)
}
