package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
)

type ClientHandler struct {
	service clientApplicationService
}

type clientApplicationService interface {
	Create(ctx context.Context, scope repository.Scope, input services.CreateClientInput) (*models.ClientDetail, error)
	Get(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.ClientDetail, error)
	List(ctx context.Context, scope repository.Scope, search string, page int, limit int) ([]models.ClientDetail, int, error)
	Update(ctx context.Context, scope repository.Scope, id uuid.UUID, input services.UpdateClientInput) (*models.ClientDetail, error)
}

func NewClientHandler(service *services.ClientService) *ClientHandler {
	return &ClientHandler{service: service}
}

type createClientRequest struct {
	FullName string  `json:"full_name" validate:"required,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Notes    *string `json:"notes"`
}

type updateClientRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Notes    *string `json:"notes"`
}

func (h *ClientHandler) Create(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	var req createClientRequest
	if msg := decodeBody(c, &req); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}

	client, err := h.service.Create(c.Context(), scope, services.CreateClientInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Notes:    req.Notes,
	})
	if err != nil {
		return mapClientError(c, err)
	}
	return respondOK(c, fiber.StatusCreated, client)
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	page, limit := pageParams(c.Query("page"), c.Query("limit"))
	clients, total, err := h.service.List(c.Context(), scope, strings.TrimSpace(c.Query("search")), page, limit)
	if err != nil {
		return mapClientError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"clients":    clients,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ClientHandler) Get(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid client id")
	}

	client, err := h.service.Get(c.Context(), scope, id)
	if err != nil {
		return mapClientError(c, err)
	}
	return respondOK(c, fiber.StatusOK, client)
}

func (h *ClientHandler) Update(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid client id")
	}

	var req updateClientRequest
	if msg := decodeBody(c, &req); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}

	client, err := h.service.Update(c.Context(), scope, id, services.UpdateClientInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Notes:    req.Notes,
	})
	if err != nil {
		return mapClientError(c, err)
	}
	return respondOK(c, fiber.StatusOK, client)
}

func mapClientError(c *fiber.Ctx, err error) error {
	return mapServiceError(c, err, "Client not found", "Failed to process client request")
}
