package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/timegrid-api/internal/models"
	"github.com/edusched/timegrid-api/internal/service"
	"github.com/edusched/timegrid-api/pkg/config"
)

type fakeSessionStore struct {
	session  *models.Session
	existing []models.Session
}

func (f *fakeSessionStore) FindByID(_ context.Context, id int64) (*models.Session, error) {
	if f.session == nil || f.session.ID != id {
		return nil, fmt.Errorf("sql: no rows in result set")
	}
	copied := *f.session
	return &copied, nil
}

func (f *fakeSessionStore) ListForDate(_ context.Context, _ sqlx.ExtContext, _ string) ([]models.Session, error) {
	return f.existing, nil
}

func (f *fakeSessionStore) UpdatePlacement(_ context.Context, _ sqlx.ExtContext, id int64, date, startTime, endTime string, _ types.JSONText) (*models.Session, error) {
	copied := *f.session
	copied.ID = id
	copied.Date = &date
	copied.StartTime = startTime
	copied.EndTime = endTime
	return &copied, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id int64) error {
	if f.session == nil || f.session.ID != id {
		return fmt.Errorf("no rows affected")
	}
	return nil
}

func (f *fakeSessionStore) Duplicate(_ context.Context, id int64) (*models.Session, error) {
	if f.session == nil || f.session.ID != id {
		return nil, fmt.Errorf("sql: no rows in result set")
	}
	copied := *f.session
	copied.ID = id + 1
	return &copied, nil
}

func (f *fakeSessionStore) List(_ context.Context, _ models.SessionFilter) ([]models.Session, int, error) {
	return f.existing, len(f.existing), nil
}

func (f *fakeSessionStore) ListByClassRange(_ context.Context, _, _, _ string) ([]models.Session, error) {
	return f.existing, nil
}

func newPlacementHandler(t *testing.T, store *fakeSessionStore, mock func(sqlmock.Sqlmock)) *PlacementHandler {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if mock != nil {
		mock(sqlMock)
	}

	sessions := service.NewSessionService(store, nil, nil, config.CacheConfig{SnapshotTTL: time.Minute}, nil)
	placements := service.NewPlacementService(sqlx.NewDb(db, "sqlmock"), store, nil, sessions, nil, nil, nil)
	return NewPlacementHandler(placements)
}

func placementFixture() *fakeSessionStore {
	date := "2026-01-05"
	blockerDate := "2026-01-06"
	return &fakeSessionStore{
		session: &models.Session{
			ID:         1,
			CourseCode: "MATH101",
			Date:       &date,
			StartTime:  "08:00",
			EndTime:    "10:00",
			ClassID:    "class-1",
			RoomID:     "room-a",
			TeacherID:  "teach-1",
		},
		existing: []models.Session{{
			ID:         2,
			CourseCode: "PHYS201",
			Date:       &blockerDate,
			StartTime:  "09:00",
			EndTime:    "11:00",
			ClassID:    "class-1",
			RoomID:     "room-b",
			TeacherID:  "teach-2",
		}},
	}
}

func postJSON(t *testing.T, handlerFn gin.HandlerFunc, path string, params gin.Params, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params

	handlerFn(c)
	return rec
}

func TestPlacementHandlerValidateReportsConflict(t *testing.T) {
	handler := newPlacementHandler(t, placementFixture(), nil)

	rec := postJSON(t, handler.Validate, "/placements/validate", nil, gin.H{
		"sessionId": 1,
		"target":    gin.H{"date": "2026-01-06", "startTime": "10:00", "endTime": "12:00"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Target    models.DropTarget          `json:"target"`
			Conflicts []models.PlacementConflict `json:"conflicts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Target.Valid)
	require.Len(t, envelope.Data.Conflicts, 1)
	assert.Equal(t, int64(2), envelope.Data.Conflicts[0].SessionID)
}

func TestPlacementHandlerMoveConflictReturns409(t *testing.T) {
	handler := newPlacementHandler(t, placementFixture(), func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		m.ExpectRollback()
	})

	rec := postJSON(t, handler.Move, "/sessions/1/move", gin.Params{{Key: "id", Value: "1"}}, gin.H{
		"target": gin.H{"date": "2026-01-06", "startTime": "09:00", "endTime": "11:00"},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "SLOT_OCCUPIED", envelope.Error.Code)
}

func TestPlacementHandlerMoveSucceeds(t *testing.T) {
	handler := newPlacementHandler(t, placementFixture(), func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		m.ExpectCommit()
	})

	rec := postJSON(t, handler.Move, "/sessions/1/move", gin.Params{{Key: "id", Value: "1"}}, gin.H{
		"target": gin.H{"day": "WEDNESDAY", "weekMonday": "2026-01-05", "startTime": "08:00"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Date)
	assert.Equal(t, "2026-01-07", *envelope.Data.Date)
	assert.Equal(t, "10:00", envelope.Data.EndTime)
}

func TestPlacementHandlerMoveRejectsBadID(t *testing.T) {
	handler := newPlacementHandler(t, placementFixture(), nil)

	rec := postJSON(t, handler.Move, "/sessions/abc/move", gin.Params{{Key: "id", Value: "abc"}}, gin.H{
		"target": gin.H{"date": "2026-01-06", "startTime": "09:00"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
