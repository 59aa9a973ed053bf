package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	"github.com/Thiritin/shifty/internal/repository"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type dashboardShiftReader interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error)
	ListForUser(ctx context.Context, userID string) ([]models.Shift, error)
	Totals(ctx context.Context) (*repository.Totals, error)
}

type dashboardAssignmentReader interface {
	CountTotal(ctx context.Context) (int, error)
	CountForUser(ctx context.Context, userID string) (int, error)
	CountsByShift(ctx context.Context) (map[string]int, error)
}

type dashboardUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

const dashboardStatsCacheKey = "dashboard:stats"

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	UpcomingShiftsLimit int
	UnfilledShiftsLimit int
}

// DashboardService composes the landing-page payload. Event-wide
// aggregates are cached; everything derived per viewer or per shift is
// computed fresh on every request.
type DashboardService struct {
	shifts      dashboardShiftReader
	assignments dashboardAssignmentReader
	users       dashboardUserReader
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(shifts dashboardShiftReader, assignments dashboardAssignmentReader, users dashboardUserReader, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.UpcomingShiftsLimit <= 0 {
		cfg.UpcomingShiftsLimit = 5
	}
	if cfg.UnfilledShiftsLimit <= 0 {
		cfg.UnfilledShiftsLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		shifts:      shifts,
		assignments: assignments,
		users:       users,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Overview assembles the dashboard for the given viewer.
func (s *DashboardService) Overview(ctx context.Context, userID string) (*models.DashboardOverview, error) {
	stats, err := s.eventStats(ctx)
	if err != nil {
		return nil, err
	}

	me, err := s.volunteerStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.upcomingShifts(ctx, userID)
	if err != nil {
		return nil, err
	}

	unfilled, err := s.unfilledShifts(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.DashboardOverview{
		Stats:          *stats,
		Me:             *me,
		UpcomingShifts: upcoming,
		UnfilledShifts: unfilled,
	}, nil
}

// eventStats returns the cached event-wide aggregates, recomputing them
// on a miss.
func (s *DashboardService) eventStats(ctx context.Context) (*models.EventStats, error) {
	if s.cache.Enabled() {
		var cached models.EventStats
		hit, err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	totals, err := s.shifts.Totals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift totals")
	}
	assignments, err := s.assignments.CountTotal(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}

	var ratio float64
	if totals.TotalSpots > 0 {
		ratio = float64(assignments) / float64(totals.TotalSpots)
	}
	stats := &models.EventStats{
		TotalShifts:      totals.TotalShifts,
		TotalSpots:       totals.TotalSpots,
		TotalAssignments: assignments,
		FillRatio:        ratio,
		GeneratedAt:      s.now().UTC(),
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *DashboardService) volunteerStatus(ctx context.Context, userID string) (*models.VolunteerStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	count, err := s.assignments.CountForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count user assignments")
	}
	return &models.VolunteerStatus{
		ShiftCount:     count,
		ShiftsExpected: user.ShiftsExpected,
		DogMood:        models.ComputeDogMood(count, user.ShiftsExpected),
	}, nil
}

// upcomingShifts returns the viewer's next signups, soonest first.
func (s *DashboardService) upcomingShifts(ctx context.Context, userID string) ([]models.Shift, error) {
	shifts, err := s.shifts.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user shifts")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	upcoming := make([]models.Shift, 0, s.cfg.UpcomingShiftsLimit)
	for _, shift := range shifts {
		if shift.Date.Before(today) {
			continue
		}
		upcoming = append(upcoming, shift)
		if len(upcoming) >= s.cfg.UpcomingShiftsLimit {
			break
		}
	}
	return upcoming, nil
}

// unfilledShifts surfaces shifts that still need people. Capacity comes
// from fresh counts, never from cache.
func (s *DashboardService) unfilledShifts(ctx context.Context, viewerID string) ([]models.ShiftDetail, error) {
	shifts, err := s.shifts.List(ctx, models.ShiftFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	counts, err := s.assignments.CountsByShift(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments per shift")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	unfilled := make([]models.ShiftDetail, 0, s.cfg.UnfilledShiftsLimit)
	for _, shift := range shifts {
		if shift.Date.Before(today) {
			continue
		}
		capacity := models.ComputeCapacity(shift.RequiredPeople, counts[shift.ID])
		if capacity.IsFull {
			continue
		}
		unfilled = append(unfilled, models.ShiftDetail{
			Shift:    shift,
			Capacity: capacity,
			Users:    []models.UserSummary{},
		})
		if len(unfilled) >= s.cfg.UnfilledShiftsLimit {
			break
		}
	}
	return unfilled, nil
}
