package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

func TestNotificationServiceListsOnlyDeliveredRows(t *testing.T) {
	f := newFixture()
	sentAt := time.Date(2024, time.October, 10, 13, 30, 0, 0, time.UTC)
	f.notifications.rows = []models.Notification{
		{ID: uuid.New(), AccountID: testAccountID, UserID: testUserID, SentAt: &sentAt},
		{ID: uuid.New(), AccountID: testAccountID, UserID: testUserID, SentAt: &sentAt, IsRead: true},
		{ID: uuid.New(), AccountID: testAccountID, UserID: testUserID},
		{ID: uuid.New(), AccountID: testAccountID, UserID: testCounselorID, SentAt: &sentAt},
	}
	service := NewNotificationService(f.notifications, f.settings)

	all, err := service.List(context.Background(), ownerScope(), false, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 delivered notifications, got %d", len(all))
	}
	unread, err := service.UnreadCount(context.Background(), ownerScope())
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 1 {
		t.Fatalf("expected 1 unread, got %d", unread)
	}

	if _, err := service.MarkRead(context.Background(), ownerScope(), f.notifications.rows[3].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected another user's notification to be not found, got %v", err)
	}
	updated, err := service.MarkAllRead(context.Background(), ownerScope())
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 updated, got %d", updated)
	}
}

func TestNotificationSettingsDefaultsAndUpdate(t *testing.T) {
	f := newFixture()
	service := NewNotificationService(f.notifications, f.settings)

	settings, err := service.GetSettings(context.Background(), ownerScope())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if !settings.Reminder1Hour || !settings.Reminder30Mins || !settings.BrowserEnabled || settings.SMSEnabled {
		t.Fatalf("unexpected defaults %+v", settings)
	}

	on := true
	updated, err := service.UpdateSettings(context.Background(), ownerScope(), repository.UpdateNotificationSettingsInput{SMSEnabled: &on})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if !updated.SMSEnabled || !updated.BrowserEnabled {
		t.Fatalf("expected partial update, got %+v", updated)
	}
}
