package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/edusched/timegrid-api/internal/engine"
	"github.com/edusched/timegrid-api/internal/models"
)

const sessionColumns = `id, course_code, course_name, session_type, to_char(session_date, 'YYYY-MM-DD') AS session_date, day_of_week, time_slot_ref, start_time, end_time, class_id, room_id, teacher_id, modified, created_at, updated_at`

// SessionRepository provides persistence for timetable sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions with optional filtering and pagination.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	base := "FROM sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.SessionType != "" {
		conditions = append(conditions, fmt.Sprintf("session_type = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.SessionType))
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d::date", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d::date", len(args)+1))
		args = append(args, filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"session_date": true,
		"start_time":   true,
		"course_code":  true,
		"created_at":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "session_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", sessionColumns, base, sortBy, order, size, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id int64) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByClassRange returns the session snapshot for a class between two
// local dates inclusive, the working set of one editing surface. Recurring
// sessions carry no date and belong to every week, so they are included.
func (r *SessionRepository) ListByClassRange(ctx context.Context, classID, dateFrom, dateTo string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE class_id = $1 AND ((session_date >= $2::date AND session_date <= $3::date) OR (session_date IS NULL AND day_of_week <> '')) ORDER BY session_date ASC NULLS LAST, start_time ASC", sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, classID, dateFrom, dateTo); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}

// ListForDate returns every session placed on the given date, for the
// authoritative conflict re-check before a move is committed. Runs on the
// provided executor so it can participate in the commit transaction.
func (r *SessionRepository) ListForDate(ctx context.Context, exec sqlx.ExtContext, date string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE session_date = $1::date", sessionColumns)
	var sessions []models.Session
	if err := sqlx.SelectContext(ctx, exec, &sessions, query, date); err != nil {
		return nil, fmt.Errorf("list sessions for date: %w", err)
	}
	return sessions, nil
}

// UpdatePlacement relocates a session and returns the authoritative updated
// row. Only placement fields and the modified flags change.
func (r *SessionRepository) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id int64, date, startTime, endTime string, modified types.JSONText) (*models.Session, error) {
	query := fmt.Sprintf(`UPDATE sessions SET session_date = $2::date, day_of_week = $3, start_time = $4, end_time = $5, modified = $6, updated_at = $7 WHERE id = $1 RETURNING %s`, sessionColumns)

	dayOfWeek := ""
	if parsed, err := engine.ParseLocalDate(date); err == nil {
		dayOfWeek = engine.WeekdayName(parsed)
	}

	row := exec.QueryRowxContext(ctx, query, id, date, dayOfWeek, startTime, endTime, modified, time.Now().UTC())
	var session models.Session
	if err := row.StructScan(&session); err != nil {
		return nil, fmt.Errorf("update session placement: %w", err)
	}
	return &session, nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete session %d: no rows affected", id)
	}
	return nil
}

// Duplicate inserts a copy of the session and returns the new row.
func (r *SessionRepository) Duplicate(ctx context.Context, id int64) (*models.Session, error) {
	query := fmt.Sprintf(`INSERT INTO sessions (course_code, course_name, session_type, session_date, day_of_week, time_slot_ref, start_time, end_time, class_id, room_id, teacher_id, modified, created_at, updated_at)
SELECT course_code, course_name, session_type, session_date, day_of_week, time_slot_ref, start_time, end_time, class_id, room_id, teacher_id, modified, $2, $2 FROM sessions WHERE id = $1
RETURNING %s`, sessionColumns)

	row := r.db.QueryRowxContext(ctx, query, id, time.Now().UTC())
	var session models.Session
	if err := row.StructScan(&session); err != nil {
		return nil, fmt.Errorf("duplicate session: %w", err)
	}
	return &session, nil
}
