package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
)

const appointmentColumns = `id, account_id, client_id, counselor_id, title, start_time, duration_min,
		status, location, meeting_link, notes, deleted_at, created_at, updated_at`

type CreateAppointmentInput struct {
	ClientID        uuid.UUID
	CounselorID     *uuid.UUID
	Title           string
	StartTime       time.Time
	DurationMinutes int
	Status          models.AppointmentStatus
	Location        string
	MeetingLink     *string
	Notes           *string
}

// AppointmentRangeFilter selects active appointments starting in [From, To).
type AppointmentRangeFilter struct {
	From        time.Time
	To          time.Time
	CounselorID *uuid.UUID
}

type PurgedAppointment struct {
	ID        uuid.UUID
	AccountID uuid.UUID
}

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func scanAppointment(row rowScanner, appointment *models.Appointment, extra ...any) error {
	dest := []any{
		&appointment.ID,
		&appointment.AccountID,
		&appointment.ClientID,
		&appointment.CounselorID,
		&appointment.Title,
		&appointment.StartTime,
		&appointment.DurationMinutes,
		&appointment.Status,
		&appointment.Location,
		&appointment.MeetingLink,
		&appointment.Notes,
		&appointment.DeletedAt,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *AppointmentRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := scanAppointment(r.db.QueryRow(ctx, query, args...), &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *AppointmentRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		var appointment models.Appointment
		if err := scanAppointment(rows, &appointment); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *AppointmentRepository) Create(
	ctx context.Context,
	scope Scope,
	input CreateAppointmentInput,
) (*models.Appointment, error) {
	if !scope.Valid() {
		return nil, ErrMissingScope
	}
	query := `
		INSERT INTO appointments (account_id, client_id, counselor_id, title, start_time, duration_min,
			status, location, meeting_link, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + appointmentColumns

	return r.queryOne(
		ctx,
		query,
		scope.AccountID,
		input.ClientID,
		input.CounselorID,
		input.Title,
		input.StartTime,
		input.DurationMinutes,
		input.Status,
		input.Location,
		input.MeetingLink,
		input.Notes,
	)
}

// GetByID returns an active (not trashed) appointment.
func (r *AppointmentRepository) GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("id", id).raw("deleted_at IS NULL")
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s`, appointmentColumns, w.sql())
	return r.queryOne(ctx, query, w.args...)
}

func (r *AppointmentRepository) GetTrashedByID(ctx context.Context, scope Scope, id uuid.UUID) (*models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("id", id).raw("deleted_at IS NOT NULL")
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s`, appointmentColumns, w.sql())
	return r.queryOne(ctx, query, w.args...)
}

func (r *AppointmentRepository) ListRange(
	ctx context.Context,
	scope Scope,
	filter AppointmentRangeFilter,
) ([]models.AppointmentDetail, error) {
	w, err := scope.where("a.account_id")
	if err != nil {
		return nil, err
	}
	w.raw("a.deleted_at IS NULL").
		cond("a.start_time >= $%d", filter.From).
		cond("a.start_time < $%d", filter.To)
	if filter.CounselorID != nil {
		w.eq("a.counselor_id", *filter.CounselorID)
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.account_id, a.client_id, a.counselor_id, a.title, a.start_time, a.duration_min,
			a.status, a.location, a.meeting_link, a.notes, a.deleted_at, a.created_at, a.updated_at,
			c.full_name
		FROM appointments a
		JOIN clients c ON c.id = a.client_id AND c.account_id = a.account_id
		WHERE %s
		ORDER BY a.start_time ASC, a.id ASC
	`, w.sql())

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.AppointmentDetail, 0)
	for rows.Next() {
		var detail models.AppointmentDetail
		if err := scanAppointment(rows, &detail.Appointment, &detail.ClientName); err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ListOverlapping returns ids of active, non-canceled appointments of the same counselor
// whose interval intersects [start, start+duration).
func (r *AppointmentRepository) ListOverlapping(
	ctx context.Context,
	scope Scope,
	counselorID *uuid.UUID,
	start time.Time,
	durationMinutes int,
	excludedID uuid.UUID,
) ([]uuid.UUID, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	if counselorID != nil {
		w.eq("counselor_id", *counselorID)
	} else {
		w.raw("counselor_id IS NULL")
	}
	startArg := w.arg(start)
	durationArg := w.arg(durationMinutes)
	w.cond("id <> $%d", excludedID).
		raw("deleted_at IS NULL").
		cond("status <> $%d", models.StatusCanceled).
		raw(fmt.Sprintf("start_time < (%s::timestamptz + (%s::int * INTERVAL '1 minute'))", startArg, durationArg)).
		raw(fmt.Sprintf("(start_time + (duration_min * INTERVAL '1 minute')) > %s::timestamptz", startArg))

	query := fmt.Sprintf(`SELECT id FROM appointments WHERE %s ORDER BY start_time ASC`, w.sql())
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *AppointmentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	scope Scope,
	id uuid.UUID,
	current models.AppointmentStatus,
	next models.AppointmentStatus,
) (*models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	nextArg := w.arg(next)
	w.eq("id", id).eq("status", current).raw("deleted_at IS NULL")
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = %s, updated_at = NOW()
		WHERE %s
		RETURNING %s
	`, nextArg, w.sql(), appointmentColumns)
	return r.queryOne(ctx, query, w.args...)
}

func (r *AppointmentRepository) Reschedule(
	ctx context.Context,
	scope Scope,
	id uuid.UUID,
	start time.Time,
	durationMinutes int,
	status models.AppointmentStatus,
) (*models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	startArg := w.arg(start)
	durationArg := w.arg(durationMinutes)
	statusArg := w.arg(status)
	w.eq("id", id).raw("deleted_at IS NULL")
	query := fmt.Sprintf(`
		UPDATE appointments
		SET start_time = %s, duration_min = %s, status = %s, updated_at = NOW()
		WHERE %s
		RETURNING %s
	`, startArg, durationArg, statusArg, w.sql(), appointmentColumns)
	return r.queryOne(ctx, query, w.args...)
}

func (r *AppointmentRepository) SoftDelete(
	ctx context.Context,
	scope Scope,
	id uuid.UUID,
	deletedAt time.Time,
) (*models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	deletedArg := w.arg(deletedAt)
	w.eq("id", id).raw("deleted_at IS NULL")
	query := fmt.Sprintf(`
		UPDATE appointments
		SET deleted_at = %s
		WHERE %s
		RETURNING %s
	`, deletedArg, w.sql(), appointmentColumns)
	return r.queryOne(ctx, query, w.args...)
}

// Restore clears the delete timestamp. Other columns are left untouched.
func (r *AppointmentRepository) Restore(ctx context.Context, scope Scope, id uuid.UUID) (*models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("id", id).raw("deleted_at IS NOT NULL")
	query := fmt.Sprintf(`
		UPDATE appointments
		SET deleted_at = NULL
		WHERE %s
		RETURNING %s
	`, w.sql(), appointmentColumns)
	return r.queryOne(ctx, query, w.args...)
}

func (r *AppointmentRepository) ListTrashed(ctx context.Context, scope Scope) ([]models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.raw("deleted_at IS NOT NULL")
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE %s
		ORDER BY deleted_at DESC, id ASC
	`, appointmentColumns, w.sql())
	return r.queryMany(ctx, query, w.args...)
}

// PermanentDelete removes a trashed appointment. Active appointments are never hard-deleted here.
func (r *AppointmentRepository) PermanentDelete(ctx context.Context, scope Scope, id uuid.UUID) error {
	w, err := scope.where("account_id")
	if err != nil {
		return err
	}
	w.eq("id", id).raw("deleted_at IS NOT NULL")
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM appointments WHERE %s`, w.sql()), w.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// PurgeTrashedBefore is the system-wide retention sweep; it is deliberately unscoped.
func (r *AppointmentRepository) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) ([]PurgedAppointment, error) {
	rows, err := r.db.Query(ctx, `
		DELETE FROM appointments
		WHERE deleted_at IS NOT NULL AND deleted_at <= $1
		RETURNING id, account_id
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purged := make([]PurgedAppointment, 0)
	for rows.Next() {
		var item PurgedAppointment
		if err := rows.Scan(&item.ID, &item.AccountID); err != nil {
			return nil, err
		}
		purged = append(purged, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purged, nil
}

// NextForClient returns the earliest active appointment of the client starting at or after from.
func (r *AppointmentRepository) NextForClient(
	ctx context.Context,
	scope Scope,
	clientID uuid.UUID,
	from time.Time,
) (*models.Appointment, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("client_id", clientID).raw("deleted_at IS NULL").cond("start_time >= $%d", from)
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE %s
		ORDER BY start_time ASC, id ASC
		LIMIT 1
	`, appointmentColumns, w.sql())
	return r.queryOne(ctx, query, w.args...)
}
