package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type shiftRepository interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error)
	ListForUser(ctx context.Context, userID string) ([]models.Shift, error)
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	Create(ctx context.Context, shift *models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	Delete(ctx context.Context, id string) error
}

type shiftAssignmentReader interface {
	CountsByShift(ctx context.Context) (map[string]int, error)
	UsersByShift(ctx context.Context) (map[string][]models.UserSummary, error)
	ListUsersForShift(ctx context.Context, shiftID string) ([]models.UserSummary, error)
}

const shiftDateLayout = "2006-01-02"

// CreateShiftRequest describes shift creation payload. End times at or
// before the start time denote a shift that runs past midnight.
type CreateShiftRequest struct {
	Name           string `json:"name" validate:"required"`
	Date           string `json:"date" validate:"required"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	RequiredPeople int    `json:"required_people" validate:"required,min=1"`
	Description    string `json:"description"`
}

// UpdateShiftRequest describes shift update payload. Lowering
// required_people below the current signup count is permitted; the
// shift simply reads as over-subscribed afterwards.
type UpdateShiftRequest struct {
	Name           string `json:"name" validate:"required"`
	Date           string `json:"date" validate:"required"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	RequiredPeople int    `json:"required_people" validate:"required,min=1"`
	Description    string `json:"description"`
}

// ShiftService manages the shift catalog and assembles roster views.
type ShiftService struct {
	shifts      shiftRepository
	assignments shiftAssignmentReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewShiftService constructs a ShiftService.
func NewShiftService(shifts shiftRepository, assignments shiftAssignmentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ShiftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{shifts: shifts, assignments: assignments, cache: cache, validator: validate, logger: logger}
}

// List returns shifts with per-shift capacity derived from the current
// assignment counts. Capacity is always computed fresh, never cached.
func (s *ShiftService) List(ctx context.Context, filter models.ShiftFilter, viewerID string) ([]models.ShiftDetail, error) {
	shifts, err := s.shifts.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	rosters, err := s.assignments.UsersByShift(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift rosters")
	}
	details := make([]models.ShiftDetail, 0, len(shifts))
	for _, shift := range shifts {
		users := rosters[shift.ID]
		if users == nil {
			users = []models.UserSummary{}
		}
		assigned := false
		for _, u := range users {
			if u.ID == viewerID {
				assigned = true
				break
			}
		}
		details = append(details, models.ShiftDetail{
			Shift:      shift,
			Capacity:   models.ComputeCapacity(shift.RequiredPeople, len(users)),
			IsAssigned: assigned,
			Users:      users,
		})
	}
	return details, nil
}

// Get returns a single shift with its roster.
func (s *ShiftService) Get(ctx context.Context, id, viewerID string) (*models.ShiftDetail, error) {
	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	users, err := s.assignments.ListUsersForShift(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift roster")
	}
	assigned := false
	for _, u := range users {
		if u.ID == viewerID {
			assigned = true
			break
		}
	}
	return &models.ShiftDetail{
		Shift:      *shift,
		Capacity:   models.ComputeCapacity(shift.RequiredPeople, len(users)),
		IsAssigned: assigned,
		Users:      users,
	}, nil
}

// Create adds a new shift to the catalog.
func (s *ShiftService) Create(ctx context.Context, req CreateShiftRequest) (*models.Shift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}
	date, err := parseShiftTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	shift := &models.Shift{
		Name:           req.Name,
		Date:           date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		RequiredPeople: req.RequiredPeople,
		Description:    req.Description,
	}
	if err := s.shifts.Create(ctx, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create shift")
	}
	s.invalidateDashboards(ctx)
	s.logger.Info("shift created", zap.String("shift_id", shift.ID), zap.String("name", shift.Name))
	return shift, nil
}

// Update replaces the mutable fields of a shift.
func (s *ShiftService) Update(ctx context.Context, id string, req UpdateShiftRequest) (*models.Shift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}
	date, err := parseShiftTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	shift.Name = req.Name
	shift.Date = date
	shift.StartTime = req.StartTime
	shift.EndTime = req.EndTime
	shift.RequiredPeople = req.RequiredPeople
	shift.Description = req.Description
	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update shift")
	}
	s.invalidateDashboards(ctx)
	return shift, nil
}

// Delete removes a shift. Its assignments go with it.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	if err := s.shifts.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete shift")
	}
	s.invalidateDashboards(ctx)
	s.logger.Info("shift deleted", zap.String("shift_id", id))
	return nil
}

// ListForUser returns all shifts the user is signed up for, ordered by
// date and start time.
func (s *ShiftService) ListForUser(ctx context.Context, userID string) ([]models.Shift, error) {
	shifts, err := s.shifts.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user shifts")
	}
	return shifts, nil
}

func (s *ShiftService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func parseShiftTimes(date, start, end string) (time.Time, error) {
	parsed, err := time.Parse(shiftDateLayout, date)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	if _, err := models.ParseWallClock(start); err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid start_time, expected HH:MM")
	}
	if _, err := models.ParseWallClock(end); err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid end_time, expected HH:MM")
	}
	return parsed, nil
}
