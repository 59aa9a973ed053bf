package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	"github.com/Thiritin/shifty/internal/repository"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.UserDetail, error)
	UpdateQuota(ctx context.Context, id string, shiftsExpected int, isAdmin bool) error
	UpdateAvailability(ctx context.Context, id string, params repository.AvailabilityParams) error
	CompleteIntro(ctx context.Context, id string, params repository.AvailabilityParams) error
}

type userAssignmentReader interface {
	CountForUser(ctx context.Context, userID string) (int, error)
}

// UpdateUserRequest is the admin payload for adjusting a volunteer's
// expectations and role.
type UpdateUserRequest struct {
	ShiftsExpected int  `json:"shifts_expected" validate:"min=0"`
	IsAdmin        bool `json:"is_admin"`
}

// AvailabilityRequest carries a volunteer's arrival and departure window.
type AvailabilityRequest struct {
	ArrivalDate   string `json:"arrival_date" validate:"omitempty,datetime=2006-01-02"`
	DepartureDate string `json:"departure_date" validate:"omitempty,datetime=2006-01-02"`
	ArrivalTime   string `json:"arrival_time" validate:"omitempty"`
	DepartureTime string `json:"departure_time" validate:"omitempty"`
}

// IntroRequest is the onboarding payload. Unlike AvailabilityRequest
// every field is mandatory: the intro cannot be completed without a
// full arrival and departure window.
type IntroRequest struct {
	ArrivalDate   string `json:"arrival_date" validate:"required,datetime=2006-01-02"`
	DepartureDate string `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ArrivalTime   string `json:"arrival_time" validate:"required"`
	DepartureTime string `json:"departure_time" validate:"required"`
}

// UserService covers volunteer administration and profile self-service.
type UserService struct {
	users       userRepository
	assignments userAssignmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users userRepository, assignments userAssignmentReader, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, assignments: assignments, validator: validate, logger: logger}
}

// List returns every volunteer with their signup count and mood tier.
func (s *UserService) List(ctx context.Context) ([]models.UserDetail, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	for i := range users {
		users[i].DogMood = models.ComputeDogMood(users[i].ShiftCount, users[i].ShiftsExpected)
	}
	return users, nil
}

// Get returns a single volunteer with derived participation state.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserDetail, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	count, err := s.assignments.CountForUser(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count user assignments")
	}
	return &models.UserDetail{
		User:       *user,
		ShiftCount: count,
		DogMood:    models.ComputeDogMood(count, user.ShiftsExpected),
	}, nil
}

// Update adjusts the admin-managed fields of a volunteer.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.UserDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if err := s.users.UpdateQuota(ctx, id, req.ShiftsExpected, req.IsAdmin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return s.Get(ctx, id)
}

// UpdateAvailability stores the volunteer's own arrival and departure
// window.
func (s *UserService) UpdateAvailability(ctx context.Context, userID string, req AvailabilityRequest) (*models.User, error) {
	params, err := s.availabilityParams(req)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateAvailability(ctx, userID, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	return s.currentUser(ctx, userID)
}

// CompleteIntro records the volunteer's availability and marks the
// first-login introduction as seen in one step. The full window is
// required here, so has_seen_intro can never flip without availability
// on record.
func (s *UserService) CompleteIntro(ctx context.Context, userID string, req IntroRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intro payload")
	}
	params, err := s.availabilityParams(AvailabilityRequest{
		ArrivalDate:   req.ArrivalDate,
		DepartureDate: req.DepartureDate,
		ArrivalTime:   req.ArrivalTime,
		DepartureTime: req.DepartureTime,
	})
	if err != nil {
		return nil, err
	}
	if err := s.users.CompleteIntro(ctx, userID, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete intro")
	}
	s.logger.Info("intro completed", zap.String("user_id", userID))
	return s.currentUser(ctx, userID)
}

func (s *UserService) currentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) availabilityParams(req AvailabilityRequest) (repository.AvailabilityParams, error) {
	if err := s.validator.Struct(req); err != nil {
		return repository.AvailabilityParams{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	var params repository.AvailabilityParams
	if req.ArrivalDate != "" {
		parsed, err := time.Parse(shiftDateLayout, req.ArrivalDate)
		if err != nil {
			return params, appErrors.Clone(appErrors.ErrValidation, "invalid arrival_date, expected YYYY-MM-DD")
		}
		params.ArrivalDate = &parsed
	}
	if req.DepartureDate != "" {
		parsed, err := time.Parse(shiftDateLayout, req.DepartureDate)
		if err != nil {
			return params, appErrors.Clone(appErrors.ErrValidation, "invalid departure_date, expected YYYY-MM-DD")
		}
		params.DepartureDate = &parsed
	}
	if params.ArrivalDate != nil && params.DepartureDate != nil && params.DepartureDate.Before(*params.ArrivalDate) {
		return params, appErrors.Clone(appErrors.ErrValidation, "departure_date must not be before arrival_date")
	}
	if req.ArrivalTime != "" {
		if _, err := models.ParseWallClock(req.ArrivalTime); err != nil {
			return params, appErrors.Clone(appErrors.ErrValidation, "invalid arrival_time, expected HH:MM")
		}
		value := req.ArrivalTime
		params.ArrivalTime = &value
	}
	if req.DepartureTime != "" {
		if _, err := models.ParseWallClock(req.DepartureTime); err != nil {
			return params, appErrors.Clone(appErrors.ErrValidation, "invalid departure_time, expected HH:MM")
		}
		value := req.DepartureTime
		params.DepartureTime = &value
	}
	return params, nil
}
