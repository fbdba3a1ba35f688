package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/edusched/timegrid-api/pkg/errors"

	"github.com/edusched/timegrid-api/internal/models"
	"github.com/edusched/timegrid-api/internal/repository"
	"github.com/edusched/timegrid-api/pkg/config"
)

const snapshotKeyPrefix = "timegrid:snapshot"

type sessionReader interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	FindByID(ctx context.Context, id int64) (*models.Session, error)
	ListByClassRange(ctx context.Context, classID, dateFrom, dateTo string) ([]models.Session, error)
}

// SessionService serves session reads, backed by a Redis read-through cache
// for the week snapshot that the grid and the placement engine both consume.
type SessionService struct {
	repo     sessionReader
	cache    *repository.CacheRepository
	metrics  *MetricsService
	cacheCfg config.CacheConfig
	validate *validator.Validate
	logger   *zap.Logger
}

func NewSessionService(repo sessionReader, cache *repository.CacheRepository, metrics *MetricsService, cacheCfg config.CacheConfig, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		cacheCfg: cacheCfg,
		validate: validator.New(),
		logger:   logger,
	}
}

// List returns sessions matching the filter plus pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	if filter.SessionType != "" && !models.ValidSessionType(models.SessionType(filter.SessionType)) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown session type %q", filter.SessionType))
	}

	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Error(err))
		return nil, nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to list sessions")
	}

	return sessions, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}, nil
}

// Get returns a single session by id.
func (s *SessionService) Get(ctx context.Context, id int64) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d not found", id))
	}
	return session, nil
}

// Snapshot returns every session for a class inside the date range. Results
// are cached per (class, range) and invalidated on any committed move.
func (s *SessionService) Snapshot(ctx context.Context, classID, dateFrom, dateTo string) ([]models.Session, error) {
	key := fmt.Sprintf("%s:%s:%s:%s", snapshotKeyPrefix, classID, dateFrom, dateTo)

	if s.cache != nil {
		var cached []models.Session
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.ObserveCacheLookup(true)
			return cached, nil
		}
		s.metrics.ObserveCacheLookup(false)
	}

	sessions, err := s.repo.ListByClassRange(ctx, classID, dateFrom, dateTo)
	if err != nil {
		s.logger.Error("load snapshot failed",
			zap.String("class_id", classID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load session snapshot")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, sessions, s.cacheCfg.SnapshotTTL); err != nil {
			s.logger.Warn("snapshot cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return sessions, nil
}

// InvalidateSnapshots drops every cached snapshot for the class.
func (s *SessionService) InvalidateSnapshots(ctx context.Context, classID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("%s:%s:*", snapshotKeyPrefix, classID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("snapshot invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
