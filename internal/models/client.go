package models

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	FullName  string    `json:"full_name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SchedulingProjection is the legacy dashboard view of a client's next session.
// It is always derived from the appointments table and never stored.
type SchedulingProjection struct {
	NextSession       *string `json:"nextSession"`
	SessionTime       *string `json:"sessionTime"`
	IsSessionCanceled bool    `json:"isSessionCanceled"`
}

type ClientDetail struct {
	Client
	SchedulingProjection
}
