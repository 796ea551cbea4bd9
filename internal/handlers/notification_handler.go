package handlers

import (
	"context"
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/middleware"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
	notifyws "github.com/saeid-a/CounselPracticeBack/internal/websocket"
	"github.com/saeid-a/CounselPracticeBack/pkg/utils"
)

type NotificationHandler struct {
	service   notificationApplicationService
	hub       *notifyws.Hub
	jwtSecret string
}

type notificationApplicationService interface {
	List(ctx context.Context, scope repository.Scope, unreadOnly bool, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, scope repository.Scope) (int, error)
	MarkRead(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, scope repository.Scope) (int64, error)
	GetSettings(ctx context.Context, scope repository.Scope) (*models.NotificationSettings, error)
	UpdateSettings(ctx context.Context, scope repository.Scope, input repository.UpdateNotificationSettingsInput) (*models.NotificationSettings, error)
}

func NewNotificationHandler(service *services.NotificationService, hub *notifyws.Hub, jwtSecret string) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub, jwtSecret: jwtSecret}
}

type updateNotificationSettingsRequest struct {
	Reminder1Hour  *bool `json:"reminder_1hour"`
	Reminder30Mins *bool `json:"reminder_30min"`
	BrowserEnabled *bool `json:"browser_enabled"`
	SMSEnabled     *bool `json:"sms_enabled"`
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	unreadOnly := strings.EqualFold(strings.TrimSpace(c.Query("unread")), "true")
	notifications, err := h.service.List(c.Context(), scope, unreadOnly, parsePositiveInt(c.Query("limit"), 0))
	if err != nil {
		return mapNotificationError(c, err)
	}
	return respondOK(c, fiber.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	count, err := h.service.UnreadCount(c.Context(), scope)
	if err != nil {
		return mapNotificationError(c, err)
	}
	return respondOK(c, fiber.StatusOK, fiber.Map{"count": count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid notification id")
	}

	notification, err := h.service.MarkRead(c.Context(), scope, id)
	if err != nil {
		return mapNotificationError(c, err)
	}
	return respondOK(c, fiber.StatusOK, notification)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	updated, err := h.service.MarkAllRead(c.Context(), scope)
	if err != nil {
		return mapNotificationError(c, err)
	}
	return respondOK(c, fiber.StatusOK, fiber.Map{"updated": updated})
}

func (h *NotificationHandler) GetSettings(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	settings, err := h.service.GetSettings(c.Context(), scope)
	if err != nil {
		return mapNotificationError(c, err)
	}
	return respondOK(c, fiber.StatusOK, settings)
}

func (h *NotificationHandler) UpdateSettings(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	var req updateNotificationSettingsRequest
	if msg := decodeBody(c, &req); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}

	settings, err := h.service.UpdateSettings(c.Context(), scope, repository.UpdateNotificationSettingsInput{
		Reminder1Hour:  req.Reminder1Hour,
		Reminder30Mins: req.Reminder30Mins,
		BrowserEnabled: req.BrowserEnabled,
		SMSEnabled:     req.SMSEnabled,
	})
	if err != nil {
		return mapNotificationError(c, err)
	}
	return respondOK(c, fiber.StatusOK, settings)
}

// WebSocketAuth accepts the token as ?token= because browsers cannot set headers on upgrade.
func (h *NotificationHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return respondError(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
	}

	claims, err := h.parseWSClaims(c)
	if err != nil || claims.AccountID == "" {
		return respondError(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("account_id", claims.AccountID)
	return c.Next()
}

func (h *NotificationHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := notifyws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *NotificationHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		tokenString, _ = middleware.BearerToken(c.Get("Authorization"))
	}
	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func mapNotificationError(c *fiber.Ctx, err error) error {
	return mapServiceError(c, err, "Notification not found", "Failed to process notification request")
}
