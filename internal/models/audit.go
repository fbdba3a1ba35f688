package models

import "time"

// MoveAudit records a committed session relocation for operator review.
type MoveAudit struct {
	ID        string    `db:"id" json:"id"`
	SessionID int64     `db:"session_id" json:"session_id"`
	FromDate  string    `db:"from_date" json:"from_date"`
	FromStart string    `db:"from_start" json:"from_start"`
	FromEnd   string    `db:"from_end" json:"from_end"`
	ToDate    string    `db:"to_date" json:"to_date"`
	ToStart   string    `db:"to_start" json:"to_start"`
	ToEnd     string    `db:"to_end" json:"to_end"`
	RequestID string    `db:"request_id" json:"request_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
