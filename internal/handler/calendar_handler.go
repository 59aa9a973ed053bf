package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thiritin/shifty/internal/service"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/response"
)

// CalendarHandler serves the personal iCalendar feed.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// Feed godoc
// @Summary Personal shift calendar as an ICS feed
// @Tags Calendar
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "iCalendar document"
// @Router /calendar.ics [get]
func (h *CalendarHandler) Feed(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	feed, err := h.calendar.Feed(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shifts.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", feed)
}
