package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusched/timegrid-api/internal/models"
)

// AuditRepository persists the move audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores one committed relocation record.
func (r *AuditRepository) Insert(ctx context.Context, audit *models.MoveAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO move_audits (id, session_id, from_date, from_start, from_end, to_date, to_start, to_end, request_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		audit.ID, audit.SessionID,
		audit.FromDate, audit.FromStart, audit.FromEnd,
		audit.ToDate, audit.ToStart, audit.ToEnd,
		audit.RequestID, audit.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert move audit: %w", err)
	}
	return nil
}

// ListBySession returns the audit history for a session, newest first.
func (r *AuditRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.MoveAudit, error) {
	const query = `SELECT id, session_id, from_date, from_start, from_end, to_date, to_start, to_end, request_id, created_at FROM move_audits WHERE session_id = $1 ORDER BY created_at DESC`
	var audits []models.MoveAudit
	if err := r.db.SelectContext(ctx, &audits, query, sessionID); err != nil {
		return nil, fmt.Errorf("list move audits: %w", err)
	}
	return audits, nil
}
