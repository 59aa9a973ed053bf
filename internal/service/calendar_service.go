package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/export"
)

type calendarShiftReader interface {
	ListForUser(ctx context.Context, userID string) ([]models.Shift, error)
}

// CalendarService renders a volunteer's signups as an iCalendar feed
// that calendar clients can subscribe to.
type CalendarService struct {
	shifts   calendarShiftReader
	exporter *export.ICSExporter
	domain   string
	location *time.Location
	logger   *zap.Logger
}

// NewCalendarService constructs a CalendarService. The domain becomes
// the host part of every event UID; the location anchors the shifts'
// wall-clock times before they are converted to UTC.
func NewCalendarService(shifts calendarShiftReader, exporter *export.ICSExporter, domain string, location *time.Location, logger *zap.Logger) *CalendarService {
	if exporter == nil {
		exporter = export.NewICSExporter("")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{shifts: shifts, exporter: exporter, domain: domain, location: location, logger: logger}
}

// Feed renders the user's assigned shifts as an ICS document. Shifts
// that run past midnight end on the following day.
func (s *CalendarService) Feed(ctx context.Context, userID string) ([]byte, error) {
	shifts, err := s.shifts.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user shifts")
	}

	events := make([]export.Event, 0, len(shifts))
	for _, shift := range shifts {
		start, err := shift.StartAt(s.location)
		if err != nil {
			s.logger.Warn("skipping shift with malformed start time", zap.String("shift_id", shift.ID), zap.Error(err))
			continue
		}
		end, err := shift.EndAt(s.location)
		if err != nil {
			s.logger.Warn("skipping shift with malformed end time", zap.String("shift_id", shift.ID), zap.Error(err))
			continue
		}
		events = append(events, export.Event{
			UID:         fmt.Sprintf("%s@%s", shift.ID, s.domain),
			Start:       start,
			End:         end,
			Summary:     shift.Name,
			Description: shift.Description,
		})
	}

	feed, err := s.exporter.Render(events)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar feed")
	}
	return feed, nil
}
