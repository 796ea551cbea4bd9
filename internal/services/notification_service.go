package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type NotificationService struct {
	notifications notificationStore
	settings      settingsStore
}

func NewNotificationService(notifications notificationStore, settings settingsStore) *NotificationService {
	return &NotificationService{notifications: notifications, settings: settings}
}

func (s *NotificationService) List(
	ctx context.Context,
	scope repository.Scope,
	unreadOnly bool,
	limit int,
) ([]models.Notification, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	return s.notifications.ListForUser(ctx, scope, repository.NotificationListFilter{
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
}

func (s *NotificationService) UnreadCount(ctx context.Context, scope repository.Scope) (int, error) {
	if err := requireMember(scope); err != nil {
		return 0, err
	}
	return s.notifications.CountUnread(ctx, scope)
}

func (s *NotificationService) MarkRead(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
) (*models.Notification, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	notification, err := s.notifications.MarkRead(ctx, scope, id)
	if err != nil {
		return nil, notFound(err)
	}
	return notification, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, scope repository.Scope) (int64, error) {
	if err := requireMember(scope); err != nil {
		return 0, err
	}
	return s.notifications.MarkAllRead(ctx, scope)
}

func (s *NotificationService) GetSettings(
	ctx context.Context,
	scope repository.Scope,
) (*models.NotificationSettings, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	return s.settings.GetOrCreate(ctx, scope.UserID)
}

func (s *NotificationService) UpdateSettings(
	ctx context.Context,
	scope repository.Scope,
	input repository.UpdateNotificationSettingsInput,
) (*models.NotificationSettings, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	return s.settings.Update(ctx, scope.UserID, input)
}
