package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
)

type LedgerHandler struct {
	service ledgerApplicationService
}

type ledgerApplicationService interface {
	Create(ctx context.Context, scope repository.Scope, input services.CreateTransactionInput) (*models.Transaction, error)
	ListForClient(ctx context.Context, scope repository.Scope, clientID uuid.UUID) ([]models.Transaction, error)
	Delete(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	GetBalance(ctx context.Context, scope repository.Scope, clientID uuid.UUID) (*models.ClientBalance, error)
}

func NewLedgerHandler(service *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Amount is in minor currency units.
type createTransactionRequest struct {
	ClientID      string  `json:"client_id" validate:"required,uuid"`
	AppointmentID *string `json:"appointment_id" validate:"omitempty,uuid"`
	Amount        int64   `json:"amount" validate:"gt=0"`
	Type          string  `json:"type" validate:"required,oneof=payment charge refund"`
	Method        string  `json:"method" validate:"max=50"`
	Date          *string `json:"date"`
	Status        string  `json:"status" validate:"max=30"`
}

func (h *LedgerHandler) Create(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	var req createTransactionRequest
	if msg := decodeBody(c, &req); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "client_id is invalid")
	}
	appointmentID, err := parseOptionalUUID(req.AppointmentID)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "appointment_id is invalid")
	}

	var date *time.Time
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.Date))
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "date must be a valid RFC3339 timestamp")
		}
		date = &parsed
	}

	txn, err := h.service.Create(c.Context(), scope, services.CreateTransactionInput{
		ClientID:      clientID,
		AppointmentID: appointmentID,
		Amount:        req.Amount,
		Type:          req.Type,
		Method:        req.Method,
		Date:          date,
		Status:        req.Status,
	})
	if err != nil {
		return mapLedgerError(c, err)
	}
	return respondOK(c, fiber.StatusCreated, txn)
}

func (h *LedgerHandler) ListForClient(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid client id")
	}

	transactions, err := h.service.ListForClient(c.Context(), scope, clientID)
	if err != nil {
		return mapLedgerError(c, err)
	}
	return respondOK(c, fiber.StatusOK, transactions)
}

func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	clientID, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid client id")
	}

	balance, err := h.service.GetBalance(c.Context(), scope, clientID)
	if err != nil {
		return mapLedgerError(c, err)
	}
	return respondOK(c, fiber.StatusOK, balance)
}

func (h *LedgerHandler) Delete(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid transaction id")
	}

	if err := h.service.Delete(c.Context(), scope, id); err != nil {
		return mapLedgerError(c, err)
	}
	return respondOK(c, fiber.StatusOK, fiber.Map{"id": id})
}

func mapLedgerError(c *fiber.Ctx, err error) error {
	return mapServiceError(c, err, "Not found", "Failed to process transaction request")
}
