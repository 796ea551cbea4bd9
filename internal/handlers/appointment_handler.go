package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
)

type AppointmentHandler struct {
	service appointmentApplicationService
}

type appointmentApplicationService interface {
	Create(ctx context.Context, scope repository.Scope, input services.CreateAppointmentInput) (*models.AppointmentDetail, error)
	Get(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.AppointmentDetail, error)
	UpdateStatus(ctx context.Context, scope repository.Scope, id uuid.UUID, requestedStatus string) (*models.AppointmentDetail, error)
	Reschedule(ctx context.Context, scope repository.Scope, id uuid.UUID, input services.RescheduleInput) (*models.AppointmentDetail, error)
	SoftDelete(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.TrashedAppointment, error)
	Restore(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.AppointmentDetail, error)
	ListTrash(ctx context.Context, scope repository.Scope) ([]models.TrashedAppointment, error)
	PermanentDelete(ctx context.Context, scope repository.Scope, id uuid.UUID) error
}

func NewAppointmentHandler(service *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

type createAppointmentRequest struct {
	ClientID        string  `json:"client_id" validate:"required,uuid"`
	CounselorID     *string `json:"counselor_id" validate:"omitempty,uuid"`
	Title           string  `json:"title" validate:"max=200"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string  `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int     `json:"duration_minutes" validate:"gte=0,lte=1440"`
	Location        string  `json:"location" validate:"required"`
	Notes           *string `json:"notes"`
}

type updateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type rescheduleAppointmentRequest struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0,lte=1440"`
}

func (h *AppointmentHandler) Create(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	var req createAppointmentRequest
	if msg := decodeBody(c, &req); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "client_id is invalid")
	}
	counselorID, err := parseOptionalUUID(req.CounselorID)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "counselor_id is invalid")
	}

	detail, err := h.service.Create(c.Context(), scope, services.CreateAppointmentInput{
		ClientID:        clientID,
		CounselorID:     counselorID,
		Title:           req.Title,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Notes:           req.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return respondOK(c, fiber.StatusCreated, detail)
}

func (h *AppointmentHandler) Get(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid appointment id")
	}

	detail, err := h.service.Get(c.Context(), scope, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return respondOK(c, fiber.StatusOK, detail)
}

func (h *AppointmentHandler) UpdateStatus(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid appointment id")
	}

	var req updateAppointmentStatusRequest
	if msg := decodeBody(c, &req); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}

	detail, err := h.service.UpdateStatus(c.Context(), scope, id, req.Status)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return respondOK(c, fiber.StatusOK, detail)
}

func (h *AppointmentHandler) Reschedule(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid appointment id")
	}

	var req rescheduleAppointmentRequest
	if msg := decodeBody(c, &req); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}

	detail, err := h.service.Reschedule(c.Context(), scope, id, services.RescheduleInput{
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return respondOK(c, fiber.StatusOK, detail)
}

// SoftDelete moves the appointment to the trash.
func (h *AppointmentHandler) SoftDelete(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid appointment id")
	}

	trashed, err := h.service.SoftDelete(c.Context(), scope, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return respondOK(c, fiber.StatusOK, trashed)
}

func (h *AppointmentHandler) ListTrash(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	trashed, err := h.service.ListTrash(c.Context(), scope)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return respondOK(c, fiber.StatusOK, trashed)
}

func (h *AppointmentHandler) Restore(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid appointment id")
	}

	detail, err := h.service.Restore(c.Context(), scope, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return respondOK(c, fiber.StatusOK, detail)
}

func (h *AppointmentHandler) PermanentDelete(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid appointment id")
	}

	if err := h.service.PermanentDelete(c.Context(), scope, id); err != nil {
		return mapAppointmentError(c, err)
	}
	return respondOK(c, fiber.StatusOK, fiber.Map{"id": id})
}

func mapAppointmentError(c *fiber.Ctx, err error) error {
	return mapServiceError(c, err, "Appointment not found", "Failed to process appointment request")
}
