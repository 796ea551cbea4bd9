package services

import (
	"context"
	"time"

	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRetentionDays = 30
	day                  = 24 * time.Hour
)

// DaysRemaining is retention - floor((now - deletedAt) / 1 day). A value <= 0 means
// the record is eligible for purge.
func DaysRemaining(deletedAt, now time.Time, retentionDays int) int {
	elapsed := now.Sub(deletedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return retentionDays - int(elapsed/day)
}

func EligibleForPurge(deletedAt, now time.Time, retentionDays int) bool {
	return DaysRemaining(deletedAt, now, retentionDays) <= 0
}

// PurgeCutoff is the latest deleted_at that is eligible for purge at now.
func PurgeCutoff(now time.Time, retentionDays int) time.Time {
	return now.Add(-time.Duration(retentionDays) * day)
}

type trashPurger interface {
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) ([]repository.PurgedAppointment, error)
}

// TrashSweeper hard-deletes trashed appointments whose retention window has elapsed.
type TrashSweeper struct {
	appointments  trashPurger
	audit         *AuditLog
	retentionDays int
	now           func() time.Time
}

func NewTrashSweeper(appointments trashPurger, audit *AuditLog, retentionDays int, now func() time.Time) *TrashSweeper {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if now == nil {
		now = time.Now
	}
	return &TrashSweeper{
		appointments:  appointments,
		audit:         audit,
		retentionDays: retentionDays,
		now:           now,
	}
}

func (s *TrashSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	purged, err := s.appointments.PurgeTrashedBefore(ctx, PurgeCutoff(now, s.retentionDays))
	if err != nil {
		return 0, err
	}
	for _, item := range purged {
		s.audit.Record(AuditEvent{
			Type:       "appointment.purged",
			AccountID:  item.AccountID.String(),
			EntityID:   item.ID.String(),
			OccurredAt: now,
		})
	}
	logger.Logger.WithFields(logrus.Fields{
		"job":            "trash_purge",
		"purged":         len(purged),
		"retention_days": s.retentionDays,
	}).Info("trash sweep finished")
	return len(purged), nil
}
