package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

type reminderOffset struct {
	before  time.Duration
	kind    string
	label   string
	enabled func(models.NotificationSettings) bool
}

var reminderOffsets = []reminderOffset{
	{
		before:  60 * time.Minute,
		kind:    models.NotificationReminder1Hour,
		label:   "1 hour",
		enabled: func(s models.NotificationSettings) bool { return s.Reminder1Hour },
	},
	{
		before:  30 * time.Minute,
		kind:    models.NotificationReminder30Mins,
		label:   "30 minutes",
		enabled: func(s models.NotificationSettings) bool { return s.Reminder30Mins },
	},
}

func deliveryChannelEnabled(settings models.NotificationSettings) bool {
	return settings.BrowserEnabled || settings.SMSEnabled
}

// PlanReminders returns the reminders to persist. Offsets whose fire time is not
// strictly after now are dropped.
func PlanReminders(
	settings models.NotificationSettings,
	userID uuid.UUID,
	appointmentID uuid.UUID,
	start time.Time,
	clientName string,
	now time.Time,
	loc *time.Location,
) []repository.CreateNotificationInput {
	if !deliveryChannelEnabled(settings) {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	planned := make([]repository.CreateNotificationInput, 0, len(reminderOffsets))
	for _, offset := range reminderOffsets {
		if !offset.enabled(settings) {
			continue
		}
		fireAt := start.Add(-offset.before)
		if !fireAt.After(now) {
			continue
		}
		id := appointmentID
		planned = append(planned, repository.CreateNotificationInput{
			UserID:        userID,
			Type:          offset.kind,
			Title:         fmt.Sprintf("Session in %s", offset.label),
			Message:       fmt.Sprintf("Session with %s starts at %s", clientName, start.In(loc).Format("15:04")),
			AppointmentID: &id,
			ScheduledFor:  fireAt.UTC(),
		})
	}
	return planned
}

type ReminderScheduler struct {
	loc *time.Location
	now func() time.Time
}

func NewReminderScheduler(loc *time.Location, now func() time.Time) *ReminderScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderScheduler{loc: loc, now: now}
}

// ScheduleRemindersFor persists the reminders of one appointment through stores, which
// may be bound to the caller's transaction. A settings failure writes nothing.
func (s *ReminderScheduler) ScheduleRemindersFor(
	ctx context.Context,
	stores Stores,
	scope repository.Scope,
	userID uuid.UUID,
	appointmentID uuid.UUID,
	start time.Time,
	clientName string,
) ([]models.Notification, error) {
	settings, err := stores.Settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load notification settings: %w", err)
	}

	planned := PlanReminders(*settings, userID, appointmentID, start, clientName, s.now(), s.loc)
	if len(planned) == 0 {
		return []models.Notification{}, nil
	}

	created, err := stores.Notifications.CreateBatch(ctx, scope, planned)
	if err != nil {
		return nil, fmt.Errorf("create reminders: %w", err)
	}
	return created, nil
}

// DeleteRemindersFor removes only unsent reminders of the appointment.
func (s *ReminderScheduler) DeleteRemindersFor(
	ctx context.Context,
	stores Stores,
	scope repository.Scope,
	appointmentID uuid.UUID,
) (int64, error) {
	deleted, err := stores.Notifications.DeletePendingForAppointment(ctx, scope, appointmentID)
	if err != nil {
		return 0, fmt.Errorf("delete pending reminders: %w", err)
	}
	return deleted, nil
}
