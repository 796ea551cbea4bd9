package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

// rangePadding covers adjacent-month overflow cells of a month grid.
const rangePadding = 7

var (
	mutedStyle     = models.EventStyle{Category: "canceled", Background: "#f3f4f6", Border: "#d1d5db", Text: "#9ca3af"}
	categoryStyles = map[string]models.EventStyle{
		"intake":     {Category: "intake", Background: "#dbeafe", Border: "#3b82f6", Text: "#1e3a8a"},
		"assessment": {Category: "assessment", Background: "#fef3c7", Border: "#f59e0b", Text: "#78350f"},
		"ongoing":    {Category: "ongoing", Background: "#dcfce7", Border: "#22c55e", Text: "#14532d"},
	}
	categoryKeywords = []struct {
		category string
		keywords []string
	}{
		{category: "intake", keywords: []string{"intake", "initial", "first session"}},
		{category: "assessment", keywords: []string{"assessment", "evaluation"}},
	}
)

// GridPositionOf maps a start time onto the week grid using calendar components
// in loc. The date string is never derived from a UTC-normalized value.
func GridPositionOf(start time.Time, loc *time.Location) models.GridPosition {
	local := start.In(loc)
	year, month, day := local.Date()
	return models.GridPosition{
		DayOfWeek:    int(local.Weekday()),
		FractionHour: float64(local.Hour()) + float64(local.Minute())/60,
		LocalDate:    fmt.Sprintf("%04d-%02d-%02d", year, int(month), day),
	}
}

func EventStyleFor(status models.AppointmentStatus, title string) models.EventStyle {
	if status == models.StatusCanceled {
		return mutedStyle
	}
	lowered := strings.ToLower(title)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return categoryStyles[entry.category]
			}
		}
	}
	return categoryStyles["ongoing"]
}

func ParseCalendarView(raw string) (models.CalendarView, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "month":
		return models.ViewMonth, nil
	case "week":
		return models.ViewWeek, nil
	case "day":
		return models.ViewDay, nil
	default:
		return "", fmt.Errorf("%w: view must be day, week or month", ErrValidation)
	}
}

// PaddedRange returns [first-of-month - 7d, first-of-next-month + 7d) around focal.
// The view does not change the range, so toggling views needs no refetch.
func PaddedRange(focal time.Time, loc *time.Location) models.CalendarRange {
	local := focal.In(loc)
	firstOfMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return models.CalendarRange{
		From: firstOfMonth.AddDate(0, 0, -rangePadding),
		To:   firstOfMonth.AddDate(0, 1, rangePadding),
	}
}

func BuildCalendarEvents(details []models.AppointmentDetail, loc *time.Location) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0, len(details))
	for _, detail := range details {
		events = append(events, models.CalendarEvent{
			Appointment: detail.Appointment,
			ClientName:  detail.ClientName,
			Grid:        GridPositionOf(detail.StartTime, loc),
			Style:       EventStyleFor(detail.Status, detail.Title),
		})
	}
	return events
}

type appointmentRangeLister interface {
	ListRange(ctx context.Context, scope repository.Scope, filter repository.AppointmentRangeFilter) ([]models.AppointmentDetail, error)
}

type CalendarService struct {
	appointments appointmentRangeLister
	loc          *time.Location
}

func NewCalendarService(appointments appointmentRangeLister, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{appointments: appointments, loc: loc}
}

func (s *CalendarService) Location() *time.Location {
	return s.loc
}

func (s *CalendarService) FetchRange(
	ctx context.Context,
	scope repository.Scope,
	focal time.Time,
	view models.CalendarView,
) (*models.CalendarPage, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	window := PaddedRange(focal, s.loc)
	details, err := s.appointments.ListRange(ctx, scope, repository.AppointmentRangeFilter{
		From: window.From,
		To:   window.To,
	})
	if err != nil {
		return nil, err
	}
	return &models.CalendarPage{
		Range:  window,
		View:   view,
		Events: BuildCalendarEvents(details, s.loc),
	}, nil
}
