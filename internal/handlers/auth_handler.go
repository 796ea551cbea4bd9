package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/pkg/utils"
)

type authUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthHandler struct {
	db        *pgxpool.Pool
	users     authUserStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(db *pgxpool.Pool, userRepo *repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		db:        db,
		users:     userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type registerRequest struct {
	PracticeName string  `json:"practice_name" validate:"required,max=200"`
	FullName     string  `json:"full_name" validate:"required,max=200"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new practice account together with its owner.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PracticeName = strings.TrimSpace(req.PracticeName)
	req.FullName = strings.TrimSpace(req.FullName)
	if msg := validationMessage(validate.Struct(&req)); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}

	existing, err := h.users.GetByEmail(c.Context(), req.Email)
	if err == nil && existing != nil {
		return respondError(c, fiber.StatusConflict, "Email already exists")
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return respondError(c, fiber.StatusInternalServerError, "Failed to check email")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	tx, err := h.db.Begin(c.Context())
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "Failed to start registration transaction")
	}
	defer func() {
		_ = tx.Rollback(c.Context())
	}()

	txUserRepo := repository.NewUserRepository(tx)
	account, err := txUserRepo.CreateAccount(c.Context(), req.PracticeName)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	user := &models.User{
		AccountID:    account.ID,
		Email:        req.Email,
		PasswordHash: hashed,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         models.RoleOwner,
	}
	if err := txUserRepo.CreateUser(c.Context(), user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return respondError(c, fiber.StatusConflict, "Email already exists")
		}
		return respondError(c, fiber.StatusInternalServerError, "Failed to create user")
	}

	if err := tx.Commit(c.Context()); err != nil {
		return respondError(c, fiber.StatusInternalServerError, "Failed to finalize registration")
	}

	return h.respondWithToken(c, fiber.StatusCreated, user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := validationMessage(validate.Struct(&req)); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg)
	}

	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return respondError(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return respondError(c, fiber.StatusInternalServerError, "Failed to lookup user")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return respondError(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return h.respondWithToken(c, fiber.StatusOK, user)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	scope, err := scopeFromCtx(c)
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "Invalid token")
	}

	user, err := h.users.GetByID(c.Context(), scope.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return respondError(c, fiber.StatusNotFound, "User not found")
		}
		return respondError(c, fiber.StatusInternalServerError, "Failed to fetch user")
	}
	if user.AccountID != scope.AccountID {
		return respondError(c, fiber.StatusNotFound, "User not found")
	}

	return respondOK(c, fiber.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *fiber.Ctx, status int, user *models.User) error {
	token, err := utils.GenerateToken(user.ID.String(), user.AccountID.String(), user.Role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "Failed to generate token")
	}
	return respondOK(c, status, authResponse{Token: token, User: user})
}
