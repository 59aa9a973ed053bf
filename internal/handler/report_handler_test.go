package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	"github.com/Thiritin/shifty/internal/service"
)

type reportShiftsFake struct{}

func (f *reportShiftsFake) List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	return []models.Shift{
		{ID: "shift-1", Name: "Door duty", Date: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), StartTime: "10:00", EndTime: "14:00", RequiredPeople: 2},
	}, nil
}

type reportRostersFake struct{}

func (f *reportRostersFake) UsersByShift(ctx context.Context) (map[string][]models.UserSummary, error) {
	return map[string][]models.UserSummary{
		"shift-1": {{ID: "user-1", Name: "alice"}},
	}, nil
}

func performRoster(t *testing.T, format string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	svc := service.NewReportService(&reportShiftsFake{}, &reportRostersFake{}, zap.NewNop())
	handler := NewReportHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	url := "/admin/report"
	if format != "" {
		url += "?format=" + format
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	c.Request = req

	handler.Roster(c)
	return w
}

func TestReportHandlerJSON(t *testing.T) {
	w := performRoster(t, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2026-08-28"`)
	assert.Contains(t, w.Body.String(), `"label":"PARTIAL"`)
}

func TestReportHandlerCSV(t *testing.T) {
	w := performRoster(t, "csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Door duty")
}

func TestReportHandlerPDF(t *testing.T) {
	w := performRoster(t, "pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestReportHandlerUnknownFormat(t *testing.T) {
	w := performRoster(t, "xlsx")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
