package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	defaultAppointmentTitle = "Session"
	dateLayout              = "2006-01-02"
	clockLayout             = "15:04"
)

var allowedTransitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusScheduled: {
		models.StatusCompleted,
		models.StatusCanceled,
		models.StatusPostponed,
		models.StatusNoShow,
	},
	models.StatusPostponed: {models.StatusScheduled, models.StatusCanceled},
	models.StatusCanceled:  {models.StatusScheduled},
}

type CreateAppointmentInput struct {
	ClientID        uuid.UUID
	CounselorID     *uuid.UUID
	Title           string
	Date            string
	Time            string
	DurationMinutes int
	Location        string
	Notes           *string
}

type RescheduleInput struct {
	Date            string
	Time            string
	DurationMinutes int
}

type AppointmentService struct {
	tx            TxRunner
	stores        Stores
	reminders     *ReminderScheduler
	meetings      MeetingLinkProvider
	audit         *AuditLog
	loc           *time.Location
	retentionDays int
	now           func() time.Time
}

func NewAppointmentService(
	tx TxRunner,
	stores Stores,
	reminders *ReminderScheduler,
	meetings MeetingLinkProvider,
	audit *AuditLog,
	loc *time.Location,
	retentionDays int,
	now func() time.Time,
) *AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		tx:            tx,
		stores:        stores,
		reminders:     reminders,
		meetings:      meetings,
		audit:         audit,
		loc:           loc,
		retentionDays: retentionDays,
		now:           now,
	}
}

func (s *AppointmentService) Create(
	ctx context.Context,
	scope repository.Scope,
	input CreateAppointmentInput,
) (*models.AppointmentDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	if input.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: client_id is required", ErrValidation)
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrValidation)
	}
	start, err := parseLocalStart(input.Date, input.Time, s.loc)
	if err != nil {
		return nil, err
	}
	duration, err := normalizeDuration(input.DurationMinutes)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultAppointmentTitle
	}

	client, err := s.stores.Clients.GetByID(ctx, scope, input.ClientID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.requireCounselorInAccount(ctx, scope, input.CounselorID); err != nil {
		return nil, err
	}

	meetingLink := s.requestMeetingLink(ctx, location, fmt.Sprintf("%s with %s", title, client.FullName), start, duration)

	var detail *models.AppointmentDetail
	err = s.tx.InTx(ctx, func(stores Stores) error {
		appointment, err := stores.Appointments.Create(ctx, scope, repository.CreateAppointmentInput{
			ClientID:        client.ID,
			CounselorID:     input.CounselorID,
			Title:           title,
			StartTime:       start.UTC(),
			DurationMinutes: duration,
			Status:          models.StatusScheduled,
			Location:        location,
			MeetingLink:     meetingLink,
			Notes:           input.Notes,
		})
		if err != nil {
			return err
		}

		conflicts, err := stores.Appointments.ListOverlapping(
			ctx, scope, appointment.CounselorID, appointment.StartTime, appointment.DurationMinutes, appointment.ID,
		)
		if err != nil {
			return err
		}

		if _, err := s.reminders.ScheduleRemindersFor(
			ctx, stores, scope, reminderRecipient(appointment, scope), appointment.ID, appointment.StartTime, client.FullName,
		); err != nil {
			return err
		}

		detail = &models.AppointmentDetail{
			Appointment: *appointment,
			ClientName:  client.FullName,
			Conflicts:   conflicts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record("appointment.created", scope, detail.ID)
	return detail, nil
}

func (s *AppointmentService) Get(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
) (*models.AppointmentDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	appointment, err := s.stores.Appointments.GetByID(ctx, scope, id)
	if err != nil {
		return nil, notFound(err)
	}
	client, err := s.stores.Clients.GetByID(ctx, scope, appointment.ClientID)
	if err != nil {
		return nil, notFound(err)
	}
	return &models.AppointmentDetail{Appointment: *appointment, ClientName: client.FullName}, nil
}

// UpdateStatus applies one edge of the transition table. Leaving Scheduled drops the
// pending reminders; returning to Scheduled plans them again.
func (s *AppointmentService) UpdateStatus(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
	requestedStatus string,
) (*models.AppointmentDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	next, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.stores.Appointments.GetByID(ctx, scope, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := validateStatusTransition(current.Status, next); err != nil {
		return nil, err
	}

	var detail *models.AppointmentDetail
	err = s.tx.InTx(ctx, func(stores Stores) error {
		updated, err := stores.Appointments.UpdateStatusIfCurrent(ctx, scope, id, current.Status, next)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidStateTransition
			}
			return err
		}

		client, err := stores.Clients.GetByID(ctx, scope, updated.ClientID)
		if err != nil {
			return notFound(err)
		}
		if err := s.replaceReminders(ctx, stores, scope, updated, client.FullName); err != nil {
			return err
		}

		detail = &models.AppointmentDetail{Appointment: *updated, ClientName: client.FullName}
		if next == models.StatusScheduled {
			detail.Conflicts, err = stores.Appointments.ListOverlapping(
				ctx, scope, updated.CounselorID, updated.StartTime, updated.DurationMinutes, updated.ID,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Reschedule moves the appointment and puts it back to Scheduled.
func (s *AppointmentService) Reschedule(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
	input RescheduleInput,
) (*models.AppointmentDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	start, err := parseLocalStart(input.Date, input.Time, s.loc)
	if err != nil {
		return nil, err
	}

	current, err := s.stores.Appointments.GetByID(ctx, scope, id)
	if err != nil {
		return nil, notFound(err)
	}
	if current.Status == models.StatusCompleted || current.Status == models.StatusNoShow {
		return nil, ErrInvalidStateTransition
	}
	duration := current.DurationMinutes
	if input.DurationMinutes != 0 {
		if duration, err = normalizeDuration(input.DurationMinutes); err != nil {
			return nil, err
		}
	}

	var detail *models.AppointmentDetail
	err = s.tx.InTx(ctx, func(stores Stores) error {
		updated, err := stores.Appointments.Reschedule(ctx, scope, id, start.UTC(), duration, models.StatusScheduled)
		if err != nil {
			return notFound(err)
		}
		client, err := stores.Clients.GetByID(ctx, scope, updated.ClientID)
		if err != nil {
			return notFound(err)
		}
		if err := s.replaceReminders(ctx, stores, scope, updated, client.FullName); err != nil {
			return err
		}
		conflicts, err := stores.Appointments.ListOverlapping(
			ctx, scope, updated.CounselorID, updated.StartTime, updated.DurationMinutes, updated.ID,
		)
		if err != nil {
			return err
		}
		detail = &models.AppointmentDetail{Appointment: *updated, ClientName: client.FullName, Conflicts: conflicts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// SoftDelete moves the appointment to the trash and drops its pending reminders.
func (s *AppointmentService) SoftDelete(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
) (*models.TrashedAppointment, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var trashed *models.Appointment
	err := s.tx.InTx(ctx, func(stores Stores) error {
		appointment, err := stores.Appointments.SoftDelete(ctx, scope, id, now)
		if err != nil {
			return notFound(err)
		}
		if _, err := s.reminders.DeleteRemindersFor(ctx, stores, scope, appointment.ID); err != nil {
			return err
		}
		trashed = appointment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record("appointment.trashed", scope, trashed.ID)
	return &models.TrashedAppointment{
		Appointment:   *trashed,
		DaysRemaining: s.retentionDays,
	}, nil
}

// Restore brings the appointment back unchanged. Overlaps it now causes are returned
// as conflicts.
func (s *AppointmentService) Restore(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
) (*models.AppointmentDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}

	var detail *models.AppointmentDetail
	err := s.tx.InTx(ctx, func(stores Stores) error {
		restored, err := stores.Appointments.Restore(ctx, scope, id)
		if err != nil {
			return notFound(err)
		}
		client, err := stores.Clients.GetByID(ctx, scope, restored.ClientID)
		if err != nil {
			return notFound(err)
		}
		detail = &models.AppointmentDetail{Appointment: *restored, ClientName: client.FullName}

		if restored.Status == models.StatusCanceled {
			return nil
		}
		detail.Conflicts, err = stores.Appointments.ListOverlapping(
			ctx, scope, restored.CounselorID, restored.StartTime, restored.DurationMinutes, restored.ID,
		)
		if err != nil {
			return err
		}
		return s.replaceReminders(ctx, stores, scope, restored, client.FullName)
	})
	if err != nil {
		return nil, err
	}

	if len(detail.Conflicts) > 0 {
		logger.Logger.WithFields(logrus.Fields{
			"appointment_id": detail.ID,
			"conflicts":      len(detail.Conflicts),
		}).Info("restored appointment overlaps existing bookings")
	}
	s.record("appointment.restored", scope, detail.ID)
	return detail, nil
}

func (s *AppointmentService) ListTrash(
	ctx context.Context,
	scope repository.Scope,
) ([]models.TrashedAppointment, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	appointments, err := s.stores.Appointments.ListTrashed(ctx, scope)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]models.TrashedAppointment, 0, len(appointments))
	for _, appointment := range appointments {
		remaining := 0
		if appointment.DeletedAt != nil {
			remaining = max(DaysRemaining(*appointment.DeletedAt, now, s.retentionDays), 0)
		}
		items = append(items, models.TrashedAppointment{
			Appointment:   appointment,
			DaysRemaining: remaining,
		})
	}
	return items, nil
}

// PermanentDelete is irreversible and limited to owners and counselors.
func (s *AppointmentService) PermanentDelete(ctx context.Context, scope repository.Scope, id uuid.UUID) error {
	if err := requireRole(scope, models.RoleOwner, models.RoleCounselor); err != nil {
		return err
	}
	if err := s.stores.Appointments.PermanentDelete(ctx, scope, id); err != nil {
		return notFound(err)
	}
	s.record("appointment.deleted", scope, id)
	return nil
}

// replaceReminders drops pending reminders and plans new ones when the appointment is
// still Scheduled.
func (s *AppointmentService) replaceReminders(
	ctx context.Context,
	stores Stores,
	scope repository.Scope,
	appointment *models.Appointment,
	clientName string,
) error {
	if _, err := s.reminders.DeleteRemindersFor(ctx, stores, scope, appointment.ID); err != nil {
		return err
	}
	if appointment.Status != models.StatusScheduled {
		return nil
	}
	_, err := s.reminders.ScheduleRemindersFor(
		ctx, stores, scope, reminderRecipient(appointment, scope), appointment.ID, appointment.StartTime, clientName,
	)
	return err
}

func (s *AppointmentService) requestMeetingLink(
	ctx context.Context,
	location string,
	topic string,
	start time.Time,
	duration int,
) *string {
	if s.meetings == nil || !IsRemoteLocation(location) {
		return nil
	}
	link, err := s.meetings.CreateMeeting(ctx, topic, start, duration)
	if err != nil {
		logger.Logger.WithError(err).WithField("location", location).Warn("meeting link unavailable")
		return nil
	}
	return &link
}

func (s *AppointmentService) record(eventType string, scope repository.Scope, entityID uuid.UUID) {
	s.audit.Record(AuditEvent{
		Type:       eventType,
		AccountID:  scope.AccountID.String(),
		ActorID:    scope.UserID.String(),
		EntityID:   entityID.String(),
		OccurredAt: s.now().UTC(),
	})
}

// requireCounselorInAccount rejects a counselor id that is not a user of the caller's account.
func (s *AppointmentService) requireCounselorInAccount(ctx context.Context, scope repository.Scope, counselorID *uuid.UUID) error {
	if counselorID == nil {
		return nil
	}
	if _, err := s.stores.Users.GetMember(ctx, scope, *counselorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: counselor_id is not a member of this account", ErrValidation)
		}
		return err
	}
	return nil
}

// reminderRecipient is the assigned counselor, or the caller for unassigned sessions.
func reminderRecipient(appointment *models.Appointment, scope repository.Scope) uuid.UUID {
	if appointment.CounselorID != nil {
		return *appointment.CounselorID
	}
	return scope.UserID
}

func parseLocalStart(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if clock == "" {
		return time.Time{}, fmt.Errorf("%w: time is required", ErrValidation)
	}
	start, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD and time HH:MM", ErrValidation)
	}
	return start, nil
}

func normalizeDuration(minutes int) (int, error) {
	switch {
	case minutes == 0:
		return models.DefaultDurationMinutes, nil
	case minutes < 0 || minutes > 24*60:
		return 0, fmt.Errorf("%w: duration_minutes must be between 1 and 1440", ErrValidation)
	default:
		return minutes, nil
	}
}

func normalizeRequestedStatus(status string) (models.AppointmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "schedule", "scheduled":
		return models.StatusScheduled, nil
	case "complete", "completed":
		return models.StatusCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.StatusCanceled, nil
	case "postpone", "postponed":
		return models.StatusPostponed, nil
	case "no_show", "no-show", "noshow":
		return models.StatusNoShow, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateStatusTransition(current, next models.AppointmentStatus) error {
	for _, allowed := range allowedTransitions[current] {
		if allowed == next {
			return nil
		}
	}
	return ErrInvalidStateTransition
}
