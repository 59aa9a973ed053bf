package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	"github.com/Thiritin/shifty/internal/repository"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type mockUserRepo struct {
	users        map[string]*models.User
	availability map[string]repository.AvailabilityParams
	introDone    []string
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.UserDetail, error) {
	details := []models.UserDetail{
		{User: models.User{ID: "user-1", Name: "alice", ShiftsExpected: 2}, ShiftCount: 2},
		{User: models.User{ID: "user-2", Name: "bob", ShiftsExpected: 4}, ShiftCount: 2},
		{User: models.User{ID: "user-3", Name: "carol", ShiftsExpected: 4}, ShiftCount: 1},
	}
	return details, nil
}

func (m *mockUserRepo) UpdateQuota(ctx context.Context, id string, shiftsExpected int, isAdmin bool) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ShiftsExpected = shiftsExpected
	u.IsAdmin = isAdmin
	return nil
}

func (m *mockUserRepo) UpdateAvailability(ctx context.Context, id string, params repository.AvailabilityParams) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	if m.availability == nil {
		m.availability = make(map[string]repository.AvailabilityParams)
	}
	m.availability[id] = params
	return nil
}

func (m *mockUserRepo) CompleteIntro(ctx context.Context, id string, params repository.AvailabilityParams) error {
	if err := m.UpdateAvailability(ctx, id, params); err != nil {
		return err
	}
	m.users[id].HasSeenIntro = true
	m.introDone = append(m.introDone, id)
	return nil
}

type mockUserAssignments struct {
	counts map[string]int
}

func (m *mockUserAssignments) CountForUser(ctx context.Context, userID string) (int, error) {
	return m.counts[userID], nil
}

func newUserFixture() (*mockUserRepo, *UserService) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", Name: "alice", ShiftsExpected: 2},
	}}
	assignments := &mockUserAssignments{counts: map[string]int{"user-1": 1}}
	return repo, NewUserService(repo, assignments, validator.New(), zap.NewNop())
}

func TestUserServiceListDerivesMood(t *testing.T) {
	_, svc := newUserFixture()

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, models.MoodHappy, users[0].DogMood)
	assert.Equal(t, models.MoodMediocre, users[1].DogMood)
	assert.Equal(t, models.MoodSad, users[2].DogMood)
}

func TestUserServiceGet(t *testing.T) {
	_, svc := newUserFixture()

	detail, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.ShiftCount)
	assert.Equal(t, models.MoodMediocre, detail.DogMood)
}

func TestUserServiceUpdate(t *testing.T) {
	repo, svc := newUserFixture()

	detail, err := svc.Update(context.Background(), "user-1", UpdateUserRequest{ShiftsExpected: 1, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, 1, detail.ShiftsExpected)
	assert.True(t, repo.users["user-1"].IsAdmin)
	assert.Equal(t, models.MoodHappy, detail.DogMood)
}

func TestUserServiceUpdateMissing(t *testing.T) {
	_, svc := newUserFixture()

	_, err := svc.Update(context.Background(), "user-99", UpdateUserRequest{ShiftsExpected: 3})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUserServiceUpdateAvailability(t *testing.T) {
	repo, svc := newUserFixture()

	_, err := svc.UpdateAvailability(context.Background(), "user-1", AvailabilityRequest{
		ArrivalDate:   "2026-08-26",
		DepartureDate: "2026-08-31",
		ArrivalTime:   "14:00",
		DepartureTime: "10:00",
	})
	require.NoError(t, err)
	stored := repo.availability["user-1"]
	require.NotNil(t, stored.ArrivalDate)
	assert.Equal(t, "2026-08-26", stored.ArrivalDate.Format("2006-01-02"))
	require.NotNil(t, stored.DepartureTime)
	assert.Equal(t, "10:00", *stored.DepartureTime)
}

func TestUserServiceUpdateAvailabilityInvalidWindow(t *testing.T) {
	_, svc := newUserFixture()

	_, err := svc.UpdateAvailability(context.Background(), "user-1", AvailabilityRequest{
		ArrivalDate:   "2026-08-31",
		DepartureDate: "2026-08-26",
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceCompleteIntro(t *testing.T) {
	repo, svc := newUserFixture()

	user, err := svc.CompleteIntro(context.Background(), "user-1", IntroRequest{
		ArrivalDate:   "2026-08-26",
		DepartureDate: "2026-08-31",
		ArrivalTime:   "14:00",
		DepartureTime: "10:00",
	})
	require.NoError(t, err)
	assert.True(t, user.HasSeenIntro)
	assert.Contains(t, repo.introDone, "user-1")
	stored := repo.availability["user-1"]
	require.NotNil(t, stored.ArrivalDate)
	require.NotNil(t, stored.DepartureTime)
}

func TestUserServiceCompleteIntroRequiresFullWindow(t *testing.T) {
	repo, svc := newUserFixture()

	cases := []IntroRequest{
		{},
		{ArrivalDate: "2026-08-26"},
		{ArrivalDate: "2026-08-26", DepartureDate: "2026-08-31", ArrivalTime: "14:00"},
	}
	for _, req := range cases {
		_, err := svc.CompleteIntro(context.Background(), "user-1", req)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
	assert.Empty(t, repo.introDone)
	assert.False(t, repo.users["user-1"].HasSeenIntro)
}
