package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
)

type UpdateNotificationSettingsInput struct {
	Reminder1Hour  *bool
	Reminder30Mins *bool
	BrowserEnabled *bool
	SMSEnabled     *bool
}

type NotificationSettingsRepository struct {
	db DBTX
}

func NewNotificationSettingsRepository(db DBTX) *NotificationSettingsRepository {
	return &NotificationSettingsRepository{db: db}
}

// GetOrCreate returns the user's settings, inserting the defaults on first access.
func (r *NotificationSettingsRepository) GetOrCreate(
	ctx context.Context,
	userID uuid.UUID,
) (*models.NotificationSettings, error) {
	defaults := models.DefaultNotificationSettings(userID)
	query := `
		INSERT INTO notification_settings (user_id, reminder_1hour, reminder_30min, browser_enabled, sms_enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, reminder_1hour, reminder_30min, browser_enabled, sms_enabled, updated_at
	`
	var settings models.NotificationSettings
	err := r.db.QueryRow(
		ctx,
		query,
		userID,
		defaults.Reminder1Hour,
		defaults.Reminder30Mins,
		defaults.BrowserEnabled,
		defaults.SMSEnabled,
	).Scan(
		&settings.UserID,
		&settings.Reminder1Hour,
		&settings.Reminder30Mins,
		&settings.BrowserEnabled,
		&settings.SMSEnabled,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *NotificationSettingsRepository) Update(
	ctx context.Context,
	userID uuid.UUID,
	input UpdateNotificationSettingsInput,
) (*models.NotificationSettings, error) {
	defaults := models.DefaultNotificationSettings(userID)
	query := `
		INSERT INTO notification_settings (user_id, reminder_1hour, reminder_30min, browser_enabled, sms_enabled)
		VALUES ($1, COALESCE($2, $6), COALESCE($3, $7), COALESCE($4, $8), COALESCE($5, $9))
		ON CONFLICT (user_id) DO UPDATE SET
			reminder_1hour = COALESCE($2, notification_settings.reminder_1hour),
			reminder_30min = COALESCE($3, notification_settings.reminder_30min),
			browser_enabled = COALESCE($4, notification_settings.browser_enabled),
			sms_enabled = COALESCE($5, notification_settings.sms_enabled),
			updated_at = NOW()
		RETURNING user_id, reminder_1hour, reminder_30min, browser_enabled, sms_enabled, updated_at
	`
	var settings models.NotificationSettings
	err := r.db.QueryRow(
		ctx,
		query,
		userID,
		input.Reminder1Hour,
		input.Reminder30Mins,
		input.BrowserEnabled,
		input.SMSEnabled,
		defaults.Reminder1Hour,
		defaults.Reminder30Mins,
		defaults.BrowserEnabled,
		defaults.SMSEnabled,
	).Scan(
		&settings.UserID,
		&settings.Reminder1Hour,
		&settings.Reminder30Mins,
		&settings.BrowserEnabled,
		&settings.SMSEnabled,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
