package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/middleware"
	"github.com/Thiritin/shifty/internal/models"
	"github.com/Thiritin/shifty/internal/service"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/response"
)

type ledgerFake struct {
	shift  *models.Shift
	roster []models.UserSummary
}

func (f *ledgerFake) Assign(ctx context.Context, shiftID, userID string) (*models.Assignment, error) {
	if shiftID != f.shift.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
	}
	for _, u := range f.roster {
		if u.ID == userID {
			return nil, appErrors.ErrAlreadyAssigned
		}
	}
	if len(f.roster) >= f.shift.RequiredPeople {
		return nil, appErrors.ErrShiftFull
	}
	f.roster = append(f.roster, models.UserSummary{ID: userID, Name: userID})
	return &models.Assignment{ID: "a1", ShiftID: shiftID, UserID: userID}, nil
}

func (f *ledgerFake) Unassign(ctx context.Context, shiftID, userID string) error {
	for i, u := range f.roster {
		if u.ID == userID {
			f.roster = append(f.roster[:i], f.roster[i+1:]...)
			return nil
		}
	}
	return appErrors.ErrNotAssigned
}

func (f *ledgerFake) Exists(ctx context.Context, shiftID, userID string) (bool, error) {
	return false, nil
}

func (f *ledgerFake) CountForShift(ctx context.Context, shiftID string) (int, error) {
	return len(f.roster), nil
}

func (f *ledgerFake) ListUsersForShift(ctx context.Context, shiftID string) ([]models.UserSummary, error) {
	roster := f.roster
	if roster == nil {
		roster = []models.UserSummary{}
	}
	return roster, nil
}

type shiftReaderFake struct {
	shift *models.Shift
}

func (f *shiftReaderFake) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	if id == f.shift.ID {
		copied := *f.shift
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type userReaderFake struct{}

func (f *userReaderFake) FindByID(ctx context.Context, id string) (*models.User, error) {
	if id == "user-missing" {
		return nil, sql.ErrNoRows
	}
	return &models.User{ID: id}, nil
}

func newAssignmentHandler(required int, roster []models.UserSummary) (*ledgerFake, *AssignmentHandler) {
	shift := &models.Shift{ID: "shift-1", Name: "Door duty", RequiredPeople: required}
	fake := &ledgerFake{shift: shift, roster: roster}
	svc := service.NewAssignmentService(fake, &shiftReaderFake{shift: shift}, &userReaderFake{}, nil, nil, zap.NewNop())
	return fake, NewAssignmentHandler(svc)
}

func performAssign(handler *AssignmentHandler, shiftID string, claims *models.JWTClaims) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/shifts/"+shiftID+"/assign", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: shiftID}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	handler.Assign(c)
	return w
}

func TestAssignmentHandlerAssign(t *testing.T) {
	_, handler := newAssignmentHandler(2, nil)

	w := performAssign(handler, "shift-1", &models.JWTClaims{UserID: "user-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	detail := envelope.Data.(map[string]interface{})
	assert.Equal(t, true, detail["is_assigned"])
	assert.Equal(t, float64(1), detail["assigned_count"])
}

func TestAssignmentHandlerAssignConflict(t *testing.T) {
	roster := []models.UserSummary{{ID: "user-1", Name: "alice"}}
	_, handler := newAssignmentHandler(2, roster)

	w := performAssign(handler, "shift-1", &models.JWTClaims{UserID: "user-1"})
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "ALREADY_ASSIGNED", envelope.Error.Code)
}

func TestAssignmentHandlerAssignFull(t *testing.T) {
	roster := []models.UserSummary{{ID: "user-2", Name: "bob"}}
	_, handler := newAssignmentHandler(1, roster)

	w := performAssign(handler, "shift-1", &models.JWTClaims{UserID: "user-1"})
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "SHIFT_FULL", envelope.Error.Code)
}

func TestAssignmentHandlerAssignUnauthenticated(t *testing.T) {
	_, handler := newAssignmentHandler(2, nil)

	w := performAssign(handler, "shift-1", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssignmentHandlerUnassignNotAssigned(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newAssignmentHandler(2, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/shifts/shift-1/assign", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "shift-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})

	handler.Unassign(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "NOT_ASSIGNED", envelope.Error.Code)
}

func TestAssignmentHandlerAssignUserMissingTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newAssignmentHandler(2, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/admin/shifts/shift-1/users", nil)
	req.Body = http.NoBody
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "shift-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", IsAdmin: true})

	handler.AssignUser(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
