package services

import (
	"context"
	"time"

	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDispatchBatchSize = 100
	browserNotificationType  = "notification"
)

type dueClaimer interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.Delivery, error)
}

type BrowserPusher interface {
	PushToUser(userID string, messageType string, data any) bool
}

type DispatchReport struct {
	Claimed    int `json:"claimed"`
	PushQueued int `json:"push_queued"`
	SMSSent    int `json:"sms_sent"`
	SMSFailed  int `json:"sms_failed"`
}

// ReminderDispatcher delivers due reminders. Claimed rows are marked sent before
// delivery, so a failed SMS is logged and never retried.
type ReminderDispatcher struct {
	notifications dueClaimer
	browser       BrowserPusher
	sms           SMSSender
	batchSize     int
	now           func() time.Time
}

func NewReminderDispatcher(
	notifications dueClaimer,
	browser BrowserPusher,
	sms SMSSender,
	batchSize int,
	now func() time.Time,
) *ReminderDispatcher {
	if batchSize <= 0 {
		batchSize = DefaultDispatchBatchSize
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderDispatcher{
		notifications: notifications,
		browser:       browser,
		sms:           sms,
		batchSize:     batchSize,
		now:           now,
	}
}

func (d *ReminderDispatcher) DispatchDue(ctx context.Context) (DispatchReport, error) {
	var report DispatchReport

	deliveries, err := d.notifications.ClaimDue(ctx, d.now().UTC(), d.batchSize)
	if err != nil {
		return report, err
	}
	report.Claimed = len(deliveries)

	for _, delivery := range deliveries {
		entry := logger.Logger.WithFields(logrus.Fields{
			"notification_id": delivery.ID,
			"user_id":         delivery.UserID,
			"type":            delivery.Type,
		})

		if delivery.BrowserEnabled && d.browser != nil {
			if d.browser.PushToUser(delivery.UserID.String(), browserNotificationType, delivery.Notification) {
				report.PushQueued++
			}
		}

		if !delivery.SMSEnabled || d.sms == nil {
			continue
		}
		if delivery.Phone == nil || *delivery.Phone == "" {
			entry.Debug("sms reminder skipped: no phone number")
			continue
		}
		if err := d.sms.SendSMS(ctx, *delivery.Phone, delivery.Title+": "+delivery.Message); err != nil {
			report.SMSFailed++
			entry.WithError(err).Warn("sms reminder failed")
			continue
		}
		report.SMSSent++
	}

	if report.Claimed > 0 {
		logger.Logger.WithFields(logrus.Fields{
			"job":         "reminder_dispatch",
			"claimed":     report.Claimed,
			"push_queued": report.PushQueued,
			"sms_sent":    report.SMSSent,
			"sms_failed":  report.SMSFailed,
		}).Info("reminder dispatch finished")
	}
	return report, nil
}
