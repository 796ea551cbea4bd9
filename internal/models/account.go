package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner     = "owner"
	RoleCounselor = "counselor"
	RoleStaff     = "staff"
)

type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func IsKnownRole(role string) bool {
	switch role {
	case RoleOwner, RoleCounselor, RoleStaff:
		return true
	default:
		return false
	}
}
