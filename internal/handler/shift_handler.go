package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Thiritin/shifty/internal/models"
	"github.com/Thiritin/shifty/internal/service"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/response"
)

// ShiftHandler exposes the shift catalog.
type ShiftHandler struct {
	shifts *service.ShiftService
}

// NewShiftHandler constructs ShiftHandler.
func NewShiftHandler(shifts *service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shifts: shifts}
}

// List godoc
// @Summary List shifts with capacity and roster
// @Tags Shifts
// @Produce json
// @Security BearerAuth
// @Param week query string false "Start of a seven day window (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /shifts [get]
func (h *ShiftHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.ShiftFilter
	if week := c.Query("week"); week != "" {
		parsed, err := time.Parse("2006-01-02", week)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid week, expected YYYY-MM-DD"))
			return
		}
		// Any day selects its whole Monday-through-Sunday week.
		start := parsed.AddDate(0, 0, -((int(parsed.Weekday()) + 6) % 7))
		filter.WeekStart = &start
	}
	shifts, err := h.shifts.List(c.Request.Context(), filter, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts)
}

// Get godoc
// @Summary Get a single shift
// @Tags Shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	shift, err := h.shifts.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift)
}

// MyShifts godoc
// @Summary List the caller's signed up shifts
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/shifts [get]
func (h *ShiftHandler) MyShifts(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	shifts, err := h.shifts.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts)
}

// Create godoc
// @Summary Create a shift
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateShiftRequest true "Shift payload"
// @Success 201 {object} response.Envelope
// @Router /admin/shifts [post]
func (h *ShiftHandler) Create(c *gin.Context) {
	var req service.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	shift, err := h.shifts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shift)
}

// Update godoc
// @Summary Update a shift
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Param payload body service.UpdateShiftRequest true "Shift payload"
// @Success 200 {object} response.Envelope
// @Router /admin/shifts/{id} [put]
func (h *ShiftHandler) Update(c *gin.Context) {
	var req service.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	shift, err := h.shifts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift)
}

// Delete godoc
// @Summary Delete a shift and its signups
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 204
// @Router /admin/shifts/{id} [delete]
func (h *ShiftHandler) Delete(c *gin.Context) {
	if err := h.shifts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
