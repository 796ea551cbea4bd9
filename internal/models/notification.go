package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationReminder1Hour  = "session_reminder_1hour"
	NotificationReminder30Mins = "session_reminder_30min"
)

type Notification struct {
	ID            uuid.UUID  `json:"id"`
	AccountID     uuid.UUID  `json:"account_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	ScheduledFor  time.Time  `json:"scheduled_for"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	IsRead        bool       `json:"is_read"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsPending reports whether the notification has not been sent and is still due in the future.
func (n Notification) IsPending(now time.Time) bool {
	return n.SentAt == nil && n.ScheduledFor.After(now)
}

type NotificationSettings struct {
	UserID         uuid.UUID `json:"user_id"`
	Reminder1Hour  bool      `json:"reminder_1hour"`
	Reminder30Mins bool      `json:"reminder_30min"`
	BrowserEnabled bool      `json:"browser_enabled"`
	SMSEnabled     bool      `json:"sms_enabled"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func DefaultNotificationSettings(userID uuid.UUID) NotificationSettings {
	return NotificationSettings{
		UserID:         userID,
		Reminder1Hour:  true,
		Reminder30Mins: true,
		BrowserEnabled: true,
		SMSEnabled:     false,
	}
}

// Delivery is a claimed notification with the recipient's contact details.
type Delivery struct {
	Notification
	Phone          *string `json:"-"`
	BrowserEnabled bool    `json:"-"`
	SMSEnabled     bool    `json:"-"`
}
