package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/edusched/timegrid-api/pkg/errors"

	"github.com/edusched/timegrid-api/internal/dto"
	"github.com/edusched/timegrid-api/internal/engine"
	"github.com/edusched/timegrid-api/internal/models"
	"github.com/edusched/timegrid-api/pkg/config"
)

var weekDays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// LayoutService computes the render model for a class week: pixel rectangles
// and overlap lanes per day. Sessions with malformed data degrade to a
// skipped entry instead of failing the whole grid.
type LayoutService struct {
	sessions *SessionService
	grid     config.GridConfig
	validate *validator.Validate
	logger   *zap.Logger
}

func NewLayoutService(sessions *SessionService, grid config.GridConfig, logger *zap.Logger) *LayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutService{
		sessions: sessions,
		grid:     grid,
		validate: validator.New(),
		logger:   logger,
	}
}

// WeekGrid renders one class week, Monday through Sunday.
func (s *LayoutService) WeekGrid(ctx context.Context, classID, weekMonday string) (*dto.WeekGridResponse, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if _, err := engine.DateForDay(weekMonday, "MONDAY"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	weekSunday, _ := engine.DateForDay(weekMonday, "SUNDAY")

	snapshot, err := s.sessions.Snapshot(ctx, classID, weekMonday, weekSunday)
	if err != nil {
		return nil, err
	}

	resp := &dto.WeekGridResponse{
		ClassID:    classID,
		WeekMonday: weekMonday,
		Window: dto.GridWindowInfo{
			StartHour:   s.grid.WindowStartHour,
			EndHour:     s.grid.WindowEndHour,
			PxPerMinute: s.grid.PxPerMinute,
			SnapMinutes: s.grid.SnapMinutes,
			HeightPx:    float64((s.grid.WindowEndHour-s.grid.WindowStartHour)*60) * s.grid.PxPerMinute,
		},
	}

	for _, day := range weekDays {
		date, _ := engine.DateForDay(weekMonday, day)
		column := dto.DayColumn{Day: day, Date: date, Sessions: []dto.PositionedSession{}}

		daySessions := make([]models.Session, 0)
		for _, session := range snapshot {
			if session.Date != nil && *session.Date != "" {
				if *session.Date == date {
					daySessions = append(daySessions, session)
				}
				continue
			}
			key, err := engine.DayKeyOf(session)
			if err != nil {
				continue // reported once below, not per day
			}
			if key == day {
				daySessions = append(daySessions, session)
			}
		}

		lanes := engine.LayoutDay(daySessions)
		for _, session := range daySessions {
			geometry, err := s.geometryFor(session, lanes[session.ID])
			if err != nil {
				s.logger.Warn("session excluded from layout",
					zap.Int64("session_id", session.ID),
					zap.String("day", day),
					zap.Error(err))
				resp.Skipped = append(resp.Skipped, dto.SkippedSession{SessionID: session.ID, Reason: err.Error()})
				continue
			}
			column.Sessions = append(column.Sessions, dto.PositionedSession{Session: session, Geometry: geometry})
		}

		resp.Days = append(resp.Days, column)
	}

	for _, session := range snapshot {
		if _, err := engine.DayKeyOf(session); err != nil {
			s.logger.Warn("session has no resolvable day",
				zap.Int64("session_id", session.ID),
				zap.Error(err))
			resp.Skipped = append(resp.Skipped, dto.SkippedSession{SessionID: session.ID, Reason: err.Error()})
		}
	}

	return resp, nil
}

func (s *LayoutService) geometryFor(session models.Session, lane models.OverlapLayout) (models.SessionGeometry, error) {
	top, err := engine.TopOffsetPx(session.StartTime, s.grid.WindowStartHour, s.grid.PxPerMinute)
	if err != nil {
		return models.SessionGeometry{}, fmt.Errorf("invalid start time %q", session.StartTime)
	}
	height, err := engine.HeightPx(session.StartTime, session.EndTime, s.grid.PxPerMinute, s.grid.MinCardHeightPx)
	if err != nil {
		return models.SessionGeometry{}, fmt.Errorf("invalid time range %q-%q", session.StartTime, session.EndTime)
	}

	startMin, _ := engine.TimeToMinutes(session.StartTime)
	endMin, _ := engine.TimeToMinutes(session.EndTime)
	clipped := startMin < s.grid.WindowStartHour*60 || endMin > s.grid.WindowEndHour*60

	if lane.LaneCount < 1 {
		lane = models.OverlapLayout{LaneIndex: 0, LaneCount: 1}
	}

	return models.SessionGeometry{
		SessionID: session.ID,
		TopPx:     top,
		HeightPx:  height,
		LaneIndex: lane.LaneIndex,
		LaneCount: lane.LaneCount,
		Clipped:   clipped,
	}, nil
}

// Cell returns the sessions occupying one day/slot cell within the range.
func (s *LayoutService) Cell(ctx context.Context, classID string, q dto.CellQuery) ([]models.Session, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if err := s.validate.Struct(q); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	snapshot, err := s.sessions.Snapshot(ctx, classID, q.From, q.To)
	if err != nil {
		return nil, err
	}

	return engine.SessionsForCell(snapshot, q.Day, q.Time, s.grid.SlotToleranceMin), nil
}
