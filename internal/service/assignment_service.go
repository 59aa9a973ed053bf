package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type assignmentRepository interface {
	Assign(ctx context.Context, shiftID, userID string) (*models.Assignment, error)
	Unassign(ctx context.Context, shiftID, userID string) error
	Exists(ctx context.Context, shiftID, userID string) (bool, error)
	CountForShift(ctx context.Context, shiftID string) (int, error)
	ListUsersForShift(ctx context.Context, shiftID string) ([]models.UserSummary, error)
}

type assignmentShiftReader interface {
	FindByID(ctx context.Context, id string) (*models.Shift, error)
}

type assignmentUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AssignmentService owns the assignment ledger: the shift_user relation
// and every rule that guards it. All capacity checks happen inside the
// repository transaction; this layer adds referential validation,
// detail assembly and cache invalidation.
type AssignmentService struct {
	assignments assignmentRepository
	shifts      assignmentShiftReader
	users       assignmentUserReader
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(assignments assignmentRepository, shifts assignmentShiftReader, users assignmentUserReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, shifts: shifts, users: users, cache: cache, metrics: metrics, logger: logger}
}

// Assign signs the user up for the shift. Duplicate signups and full
// shifts are rejected before anything is written.
func (s *AssignmentService) Assign(ctx context.Context, shiftID, userID string) (*models.ShiftDetail, error) {
	if _, err := s.assignments.Assign(ctx, shiftID, userID); err != nil {
		s.metrics.RecordSignup("assign", signupOutcome(err))
		return nil, err
	}
	s.metrics.RecordSignup("assign", "accepted")
	s.invalidateDashboards(ctx)
	s.logger.Info("volunteer assigned", zap.String("shift_id", shiftID), zap.String("user_id", userID))
	return s.shiftDetail(ctx, shiftID, userID)
}

// Unassign removes the user's signup from the shift. Removing a signup
// that does not exist is rejected.
func (s *AssignmentService) Unassign(ctx context.Context, shiftID, userID string) (*models.ShiftDetail, error) {
	if err := s.assignments.Unassign(ctx, shiftID, userID); err != nil {
		s.metrics.RecordSignup("unassign", signupOutcome(err))
		return nil, err
	}
	s.metrics.RecordSignup("unassign", "accepted")
	s.invalidateDashboards(ctx)
	s.logger.Info("volunteer unassigned", zap.String("shift_id", shiftID), zap.String("user_id", userID))
	return s.shiftDetail(ctx, shiftID, userID)
}

// AssignUser is the admin path: it assigns an arbitrary volunteer to a
// shift, subject to the same ledger rules as self-service signup.
func (s *AssignmentService) AssignUser(ctx context.Context, shiftID, targetUserID string) (*models.ShiftDetail, error) {
	if _, err := s.users.FindByID(ctx, targetUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return s.Assign(ctx, shiftID, targetUserID)
}

// UnassignUser is the admin path for removing an arbitrary volunteer.
func (s *AssignmentService) UnassignUser(ctx context.Context, shiftID, targetUserID string) (*models.ShiftDetail, error) {
	return s.Unassign(ctx, shiftID, targetUserID)
}

// shiftDetail assembles the post-mutation view of the shift with its
// capacity recomputed from fresh reads.
func (s *AssignmentService) shiftDetail(ctx context.Context, shiftID, viewerID string) (*models.ShiftDetail, error) {
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	users, err := s.assignments.ListUsersForShift(ctx, shiftID)
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

func signupOutcome(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrAlreadyAssigned):
		return "already_assigned"
	case errors.Is(err, appErrors.ErrShiftFull):
		return "shift_full"
	case errors.Is(err, appErrors.ErrNotAssigned):
		return "not_assigned"
	default:
		return "error"
	}
}

func (s *AssignmentService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
