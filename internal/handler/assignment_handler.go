package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thiritin/shifty/internal/service"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/response"
)

// AssignmentHandler exposes the signup ledger.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// AssignUserRequest is the admin payload for placing a volunteer.
type AssignUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Assign godoc
// @Summary Sign up for a shift
// @Tags Shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Already assigned or shift full"
// @Router /shifts/{id}/assign [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Unassign godoc
// @Summary Withdraw from a shift
// @Tags Shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Not assigned"
// @Router /shifts/{id}/assign [delete]
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.assignments.Unassign(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// AssignUser godoc
// @Summary Assign a volunteer to a shift
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Param payload body AssignUserRequest true "Target volunteer"
// @Success 200 {object} response.Envelope
// @Router /admin/shifts/{id}/users [post]
func (h *AssignmentHandler) AssignUser(c *gin.Context) {
	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.assignments.AssignUser(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// UnassignUser godoc
// @Summary Remove a volunteer from a shift
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/shifts/{id}/users/{userId} [delete]
func (h *AssignmentHandler) UnassignUser(c *gin.Context) {
	detail, err := h.assignments.UnassignUser(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}
