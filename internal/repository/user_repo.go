package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
)

const userColumns = `id, account_id, email, password_hash, full_name, phone, role, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.AccountID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *UserRepository) CreateAccount(ctx context.Context, name string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (name)
		VALUES ($1)
		RETURNING id, name, created_at
	`
	var account models.Account
	if err := r.db.QueryRow(ctx, query, name).Scan(&account.ID, &account.Name, &account.CreatedAt); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (account_id, email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, user.AccountID, user.Email, user.PasswordHash, user.FullName, user.Phone, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var user models.User
	if err := scanUser(r.db.QueryRow(ctx, query, email), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user models.User
	if err := scanUser(r.db.QueryRow(ctx, query, id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetMember returns the user only when they belong to the scope's account.
func (r *UserRepository) GetMember(ctx context.Context, scope Scope, id uuid.UUID) (*models.User, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("id", id)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s`, userColumns, w.sql())
	var user models.User
	if err := scanUser(r.db.QueryRow(ctx, query, w.args...), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
