package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
)

const notificationColumns = `id, account_id, user_id, type, title, message, appointment_id,
		scheduled_for, sent_at, is_read, created_at`

type CreateNotificationInput struct {
	UserID        uuid.UUID
	Type          string
	Title         string
	Message       string
	AppointmentID *uuid.UUID
	ScheduledFor  time.Time
}

type NotificationListFilter struct {
	UnreadOnly bool
	Limit      int
}

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func scanNotification(row rowScanner, n *models.Notification, extra ...any) error {
	dest := []any{
		&n.ID,
		&n.AccountID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.AppointmentID,
		&n.ScheduledFor,
		&n.SentAt,
		&n.IsRead,
		&n.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// CreateBatch inserts all rows in one statement so a batch is written entirely or not at all.
func (r *NotificationRepository) CreateBatch(
	ctx context.Context,
	scope Scope,
	inputs []CreateNotificationInput,
) ([]models.Notification, error) {
	if !scope.Valid() {
		return nil, ErrMissingScope
	}
	if len(inputs) == 0 {
		return []models.Notification{}, nil
	}

	const perRow = 7
	values := make([]string, 0, len(inputs))
	args := make([]any, 0, len(inputs)*perRow)
	for i, input := range inputs {
		base := i * perRow
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args,
			scope.AccountID,
			input.UserID,
			input.Type,
			input.Title,
			input.Message,
			input.AppointmentID,
			input.ScheduledFor,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO notifications (account_id, user_id, type, title, message, appointment_id, scheduled_for)
		VALUES %s
		RETURNING %s
	`, strings.Join(values, ", "), notificationColumns)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	created := make([]models.Notification, 0, len(inputs))
	for rows.Next() {
		var n models.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		created = append(created, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return created, nil
}

// DeletePendingForAppointment never touches rows that were already sent.
func (r *NotificationRepository) DeletePendingForAppointment(
	ctx context.Context,
	scope Scope,
	appointmentID uuid.UUID,
) (int64, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return 0, err
	}
	w.eq("appointment_id", appointmentID).raw("sent_at IS NULL")
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM notifications WHERE %s`, w.sql()), w.args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListForUser returns delivered notifications of the calling user, newest first.
func (r *NotificationRepository) ListForUser(
	ctx context.Context,
	scope Scope,
	filter NotificationListFilter,
) ([]models.Notification, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("user_id", scope.UserID).raw("sent_at IS NOT NULL")
	if filter.UnreadOnly {
		w.raw("is_read = FALSE")
	}
	limitArg := w.arg(filter.Limit)

	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE %s
		ORDER BY sent_at DESC, id ASC
		LIMIT %s
	`, notificationColumns, w.sql(), limitArg)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, scope Scope, id uuid.UUID) (*models.Notification, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("user_id", scope.UserID).eq("id", id)
	query := fmt.Sprintf(`
		UPDATE notifications
		SET is_read = TRUE
		WHERE %s
		RETURNING %s
	`, w.sql(), notificationColumns)

	var n models.Notification
	if err := scanNotification(r.db.QueryRow(ctx, query, w.args...), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, scope Scope) (int64, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return 0, err
	}
	w.eq("user_id", scope.UserID).raw("sent_at IS NOT NULL").raw("is_read = FALSE")
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE notifications SET is_read = TRUE WHERE %s`, w.sql()), w.args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, scope Scope) (int, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return 0, err
	}
	w.eq("user_id", scope.UserID).raw("sent_at IS NOT NULL").raw("is_read = FALSE")
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM notifications WHERE %s`, w.sql())
	if err := r.db.QueryRow(ctx, query, w.args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimDue marks up to limit due notifications as sent and returns them with the
// recipient's delivery preferences. Concurrent dispatchers skip each other's rows.
func (r *NotificationRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.Delivery, error) {
	query := `
		WITH due AS (
			SELECT id FROM notifications
			WHERE sent_at IS NULL AND scheduled_for <= $1
			ORDER BY scheduled_for ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE notifications n
		SET sent_at = $1
		FROM due
		WHERE n.id = due.id
		RETURNING n.id, n.account_id, n.user_id, n.type, n.title, n.message, n.appointment_id,
			n.scheduled_for, n.sent_at, n.is_read, n.created_at,
			(SELECT u.phone FROM users u WHERE u.id = n.user_id),
			COALESCE((SELECT s.browser_enabled FROM notification_settings s WHERE s.user_id = n.user_id), TRUE),
			COALESCE((SELECT s.sms_enabled FROM notification_settings s WHERE s.user_id = n.user_id), FALSE)
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := make([]models.Delivery, 0)
	for rows.Next() {
		var d models.Delivery
		if err := scanNotification(rows, &d.Notification, &d.Phone, &d.BrowserEnabled, &d.SMSEnabled); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deliveries, nil
}
