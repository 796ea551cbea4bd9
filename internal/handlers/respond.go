package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
)

var (
	validate        = newValidator()
	errInvalidToken = errors.New("invalid token")
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respondOK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// decodeBody parses and validates the request body. The returned message is empty on success.
func decodeBody(c *fiber.Ctx, dst any) string {
	if err := c.BodyParser(dst); err != nil {
		return "Invalid request body"
	}
	return validationMessage(validate.Struct(dst))
}

func validationMessage(err error) string {
	if err == nil {
		return ""
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return "Invalid request body"
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "datetime":
			messages = append(messages, fmt.Sprintf("%s must match %s", fieldErr.Field(), fieldErr.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of %s", fieldErr.Field(), fieldErr.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fieldErr.Field()))
		}
	}
	return strings.Join(messages, "; ")
}

// scopeFromCtx rebuilds the caller scope from the locals set by middleware.AuthRequired.
func scopeFromCtx(c *fiber.Ctx) (repository.Scope, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return repository.Scope{}, errInvalidToken
	}
	accountIDStr, ok := c.Locals("account_id").(string)
	if !ok {
		return repository.Scope{}, errInvalidToken
	}
	role, ok := c.Locals("role").(string)
	if !ok {
		return repository.Scope{}, errInvalidToken
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return repository.Scope{}, errInvalidToken
	}
	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return repository.Scope{}, errInvalidToken
	}
	return repository.Scope{AccountID: accountID, UserID: userID, Role: role}, nil
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// mapServiceError covers the sentinel errors shared by every service.
func mapServiceError(c *fiber.Ctx, err error, notFoundMessage, failureMessage string) error {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidStatus):
		return respondError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrForbidden), errors.Is(err, repository.ErrMissingScope):
		return respondError(c, fiber.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrInvalidStateTransition):
		return respondError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return respondError(c, fiber.StatusNotFound, notFoundMessage)
	default:
		logger.Logger.WithError(err).WithField("path", c.Path()).Error(failureMessage)
		return respondError(c, fiber.StatusInternalServerError, failureMessage)
	}
}
