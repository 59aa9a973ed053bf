package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/export"
)

type reportShiftReader interface {
	List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error)
}

type reportAssignmentReader interface {
	UsersByShift(ctx context.Context) (map[string][]models.UserSummary, error)
}

// ReportService produces the printable roster: every shift grouped by
// day with its fulfillment state and assigned volunteers.
type ReportService struct {
	shifts      reportShiftReader
	assignments reportAssignmentReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(shifts reportShiftReader, assignments reportAssignmentReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		shifts:      shifts,
		assignments: assignments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// Roster builds the full roster grouped by day, in schedule order.
func (s *ReportService) Roster(ctx context.Context) ([]models.ReportDay, error) {
	shifts, err := s.shifts.List(ctx, models.ShiftFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	rosters, err := s.assignments.UsersByShift(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift rosters")
	}

	days := make([]models.ReportDay, 0)
	var current *models.ReportDay
	for _, shift := range shifts {
		users := rosters[shift.ID]
		if users == nil {
			users = []models.UserSummary{}
		}
		entry := models.ReportShift{
			Shift:         shift,
			Label:         models.ComputeCapacityLabel(shift.RequiredPeople, len(users)),
			AssignedCount: len(users),
			Users:         users,
		}
		date := shift.Date.Format(shiftDateLayout)
		if current == nil || current.Date != date {
			days = append(days, models.ReportDay{Date: date, Shifts: []models.ReportShift{}})
			current = &days[len(days)-1]
		}
		current.Shifts = append(current.Shifts, entry)
	}
	return days, nil
}

// RenderCSV flattens the roster into one row per shift.
func (s *ReportService) RenderCSV(ctx context.Context) ([]byte, error) {
	days, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Headers: []string{"Date", "Shift", "Time", "Status", "Assigned", "Required", "Volunteers"},
		Rows:    make([]map[string]string, 0),
	}
	for _, day := range days {
		for _, shift := range day.Shifts {
			data.Rows = append(data.Rows, reportRow(day.Date, shift))
		}
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
	}
	return payload, nil
}

// RenderPDF renders the roster with one section per day.
func (s *ReportService) RenderPDF(ctx context.Context) ([]byte, error) {
	days, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}
	sections := make([]export.Section, 0, len(days))
	for _, day := range days {
		data := export.Dataset{
			Headers: []string{"Shift", "Time", "Status", "Assigned", "Required", "Volunteers"},
			Rows:    make([]map[string]string, 0, len(day.Shifts)),
		}
		for _, shift := range day.Shifts {
			row := reportRow(day.Date, shift)
			delete(row, "Date")
			data.Rows = append(data.Rows, row)
		}
		sections = append(sections, export.Section{Title: day.Date, Dataset: data})
	}
	payload, err := s.pdf.RenderSections(sections, "Shift Roster")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
	}
	return payload, nil
}

func reportRow(date string, shift models.ReportShift) map[string]string {
	names := make([]string, 0, len(shift.Users))
	for _, u := range shift.Users {
		names = append(names, u.Name)
	}
	return map[string]string{
		"Date":       date,
		"Shift":      shift.Name,
		"Time":       fmt.Sprintf("%s-%s", shift.StartTime, shift.EndTime),
		"Status":     string(shift.Label),
		"Assigned":   strconv.Itoa(shift.AssignedCount),
		"Required":   strconv.Itoa(shift.RequiredPeople),
		"Volunteers": strings.Join(names, ", "),
	}
}
