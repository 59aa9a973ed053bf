package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type mockAssignmentRepo struct {
	shifts  map[string]*models.Shift
	rosters map[string][]models.UserSummary
}

func (m *mockAssignmentRepo) Assign(ctx context.Context, shiftID, userID string) (*models.Assignment, error) {
	shift, ok := m.shifts[shiftID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
	}
	for _, u := range m.rosters[shiftID] {
		if u.ID == userID {
			return nil, appErrors.ErrAlreadyAssigned
		}
	}
	if len(m.rosters[shiftID]) >= shift.RequiredPeople {
		return nil, appErrors.ErrShiftFull
	}
	if m.rosters == nil {
		m.rosters = make(map[string][]models.UserSummary)
	}
	m.rosters[shiftID] = append(m.rosters[shiftID], models.UserSummary{ID: userID, Name: userID})
	return &models.Assignment{ID: "a1", ShiftID: shiftID, UserID: userID, CreatedAt: time.Now()}, nil
}

func (m *mockAssignmentRepo) Unassign(ctx context.Context, shiftID, userID string) error {
	roster := m.rosters[shiftID]
	for i, u := range roster {
		if u.ID == userID {
			m.rosters[shiftID] = append(roster[:i], roster[i+1:]...)
			return nil
		}
	}
	return appErrors.ErrNotAssigned
}

func (m *mockAssignmentRepo) Exists(ctx context.Context, shiftID, userID string) (bool, error) {
	for _, u := range m.rosters[shiftID] {
		if u.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAssignmentRepo) CountForShift(ctx context.Context, shiftID string) (int, error) {
	return len(m.rosters[shiftID]), nil
}

func (m *mockAssignmentRepo) ListUsersForShift(ctx context.Context, shiftID string) ([]models.UserSummary, error) {
	roster := m.rosters[shiftID]
	if roster == nil {
		roster = []models.UserSummary{}
	}
	return roster, nil
}

type mockShiftReader struct {
	shifts map[string]*models.Shift
}

func (m *mockShiftReader) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func newLedgerFixture(required int) (*mockAssignmentRepo, *AssignmentService) {
	shift := &models.Shift{ID: "shift-1", Name: "Door duty", RequiredPeople: required}
	repo := &mockAssignmentRepo{
		shifts:  map[string]*models.Shift{"shift-1": shift},
		rosters: map[string][]models.UserSummary{},
	}
	shifts := &mockShiftReader{shifts: repo.shifts}
	users := &mockUserReader{users: map[string]*models.User{
		"user-1": {ID: "user-1", Name: "alice"},
		"user-2": {ID: "user-2", Name: "bob"},
	}}
	svc := NewAssignmentService(repo, shifts, users, nil, nil, zap.NewNop())
	return repo, svc
}

func TestAssignmentServiceAssign(t *testing.T) {
	_, svc := newLedgerFixture(2)

	detail, err := svc.Assign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)
	assert.True(t, detail.IsAssigned)
	assert.Equal(t, 1, detail.AssignedCount)
	assert.Equal(t, 1, detail.SpotsAvailable)
	assert.False(t, detail.IsFull)
}

func TestAssignmentServiceAssignDuplicate(t *testing.T) {
	_, svc := newLedgerFixture(2)

	_, err := svc.Assign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), "shift-1", "user-1")
	require.ErrorIs(t, err, appErrors.ErrAlreadyAssigned)
}

func TestAssignmentServiceAssignFull(t *testing.T) {
	_, svc := newLedgerFixture(1)

	_, err := svc.Assign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), "shift-1", "user-2")
	require.ErrorIs(t, err, appErrors.ErrShiftFull)
}

func TestAssignmentServiceUnassignNotAssigned(t *testing.T) {
	_, svc := newLedgerFixture(2)

	_, err := svc.Unassign(context.Background(), "shift-1", "user-1")
	require.ErrorIs(t, err, appErrors.ErrNotAssigned)
}

func TestAssignmentServiceUnassign(t *testing.T) {
	repo, svc := newLedgerFixture(2)

	_, err := svc.Assign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)

	detail, err := svc.Unassign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)
	assert.False(t, detail.IsAssigned)
	assert.Equal(t, 0, detail.AssignedCount)
	assert.Empty(t, repo.rosters["shift-1"])
}

func TestAssignmentServiceReassignAfterUnassign(t *testing.T) {
	repo, svc := newLedgerFixture(2)

	_, err := svc.Assign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)

	_, err = svc.Unassign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)

	detail, err := svc.Assign(context.Background(), "shift-1", "user-1")
	require.NoError(t, err)
	assert.True(t, detail.IsAssigned)
	assert.Equal(t, 1, detail.AssignedCount)
	require.Len(t, repo.rosters["shift-1"], 1)
	assert.Equal(t, "user-1", repo.rosters["shift-1"][0].ID)
}

func TestAssignmentServiceAssignUserMissing(t *testing.T) {
	_, svc := newLedgerFixture(2)

	_, err := svc.AssignUser(context.Background(), "shift-1", "user-99")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAssignmentServiceAssignUser(t *testing.T) {
	_, svc := newLedgerFixture(2)

	detail, err := svc.AssignUser(context.Background(), "shift-1", "user-2")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.AssignedCount)
}
