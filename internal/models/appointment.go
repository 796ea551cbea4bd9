package models

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusPostponed AppointmentStatus = "postponed"
	StatusNoShow    AppointmentStatus = "no_show"
)

const DefaultDurationMinutes = 50

type Appointment struct {
	ID              uuid.UUID         `json:"id"`
	AccountID       uuid.UUID         `json:"account_id"`
	ClientID        uuid.UUID         `json:"client_id"`
	CounselorID     *uuid.UUID        `json:"counselor_id,omitempty"`
	Title           string            `json:"title"`
	StartTime       time.Time         `json:"start_time"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          AppointmentStatus `json:"status"`
	Location        string            `json:"location"`
	MeetingLink     *string           `json:"meeting_link,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	DeletedAt       *time.Time        `json:"deleted_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

func (a Appointment) IsTrashed() bool {
	return a.DeletedAt != nil
}

// AppointmentDetail carries the appointment plus overlaps found at write time.
// Overlaps are informational; they never block the write.
type AppointmentDetail struct {
	Appointment
	ClientName string      `json:"client_name,omitempty"`
	Conflicts  []uuid.UUID `json:"conflicts,omitempty"`
}

type TrashedAppointment struct {
	Appointment
	DaysRemaining int `json:"days_remaining"`
}
