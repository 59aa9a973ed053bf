package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Thiritin/shifty/internal/service"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/response"
)

// ReportHandler serves the printable roster.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Roster godoc
// @Summary Full roster grouped by day
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param format query string false "Output format: json, csv or pdf" default(json)
// @Success 200 {object} response.Envelope
// @Router /admin/report [get]
func (h *ReportHandler) Roster(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	switch format {
	case "json":
		days, err := h.reports.Roster(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, days)
	case "csv":
		payload, err := h.reports.RenderCSV(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="roster.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
	case "pdf":
		payload, err := h.reports.RenderPDF(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="roster.pdf"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported format, expected json, csv or pdf"))
	}
}
