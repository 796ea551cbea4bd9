package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
)

type CalendarHandler struct {
	service calendarApplicationService
	now     func() time.Time
}

type calendarApplicationService interface {
	FetchRange(ctx context.Context, scope repository.Scope, focal time.Time, view models.CalendarView) (*models.CalendarPage, error)
	Location() *time.Location
}

func NewCalendarHandler(service *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: service, now: time.Now}
}

// GetCalendar returns the padded month window around ?date (default today in the
// practice timezone). The view only labels the response.
func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	view, err := services.ParseCalendarView(c.Query("view"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "view must be day, week or month")
	}

	loc := h.service.Location()
	focal := h.now().In(loc)
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		focal, err = time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		}
	}

	page, err := h.service.FetchRange(c.Context(), scope, focal, view)
	if err != nil {
		return mapServiceError(c, err, "Calendar not found", "Failed to load calendar")
	}
	return respondOK(c, fiber.StatusOK, page)
}
