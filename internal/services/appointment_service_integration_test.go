package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestAppointmentLifecycleAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	scope, client := createTestPractice(t, ctx, pool)
	t.Cleanup(func() { cleanupTestAccounts(t, ctx, pool, scope.AccountID) })

	stores := NewStores(pool)
	service := NewAppointmentService(
		NewPgxTxRunner(pool),
		stores,
		NewReminderScheduler(time.UTC, nil),
		nil,
		nil,
		time.UTC,
		DefaultRetentionDays,
		nil,
	)

	created, err := service.Create(ctx, scope, CreateAppointmentInput{
		ClientID: client.ID,
		Title:    "Intake",
		Date:     "2030-03-15",
		Time:     "14:30",
		Location: "office",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.DurationMinutes != models.DefaultDurationMinutes {
		t.Fatalf("expected default duration, got %d", created.DurationMinutes)
	}
	if got := countPendingReminders(t, ctx, pool, created.ID); got != 2 {
		t.Fatalf("expected 2 pending reminders, got %d", got)
	}

	overlapping, err := service.Create(ctx, scope, CreateAppointmentInput{
		ClientID: client.ID,
		Date:     "2030-03-15",
		Time:     "15:00",
		Location: "office",
	})
	if err != nil {
		t.Fatalf("Create overlapping: %v", err)
	}
	if len(overlapping.Conflicts) != 1 || overlapping.Conflicts[0] != created.ID {
		t.Fatalf("expected overlap with %s, got %v", created.ID, overlapping.Conflicts)
	}

	if _, err := pool.Exec(ctx, `UPDATE notifications SET sent_at = NOW() WHERE appointment_id = $1 AND type = $2`,
		created.ID, models.NotificationReminder1Hour); err != nil {
		t.Fatalf("mark reminder sent: %v", err)
	}

	if _, err := service.SoftDelete(ctx, scope, created.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if got := countPendingReminders(t, ctx, pool, created.ID); got != 0 {
		t.Fatalf("expected pending reminders to be removed, got %d", got)
	}
	if got := countSentReminders(t, ctx, pool, created.ID); got != 1 {
		t.Fatalf("expected sent reminder to survive, got %d", got)
	}

	calendar := NewCalendarService(stores.Appointments, time.UTC)
	page, err := calendar.FetchRange(ctx, scope, time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC), models.ViewMonth)
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].ID != overlapping.ID {
		t.Fatalf("expected only the active appointment, got %+v", page.Events)
	}

	trash, err := service.ListTrash(ctx, scope)
	if err != nil {
		t.Fatalf("ListTrash: %v", err)
	}
	if len(trash) != 1 || trash[0].DaysRemaining != DefaultRetentionDays {
		t.Fatalf("unexpected trash %+v", trash)
	}

	restored, err := service.Restore(ctx, scope, created.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !restored.StartTime.Equal(created.StartTime) || restored.Title != created.Title {
		t.Fatalf("restore changed fields: %+v", restored.Appointment)
	}
	if len(restored.Conflicts) != 1 || restored.Conflicts[0] != overlapping.ID {
		t.Fatalf("expected restore to report overlap, got %v", restored.Conflicts)
	}

	otherScope, _ := createTestPractice(t, ctx, pool)
	t.Cleanup(func() { cleanupTestAccounts(t, ctx, pool, otherScope.AccountID) })
	if _, err := service.Get(ctx, otherScope, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected tenant isolation, got %v", err)
	}
}

func TestCounselorMustBelongToAccountAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	scope, client := createTestPractice(t, ctx, pool)
	otherScope, _ := createTestPractice(t, ctx, pool)
	t.Cleanup(func() { cleanupTestAccounts(t, ctx, pool, scope.AccountID, otherScope.AccountID) })

	if _, err := repository.NewUserRepository(pool).GetMember(ctx, scope, otherScope.UserID); err == nil {
		t.Fatal("expected foreign user to be hidden from the account")
	}

	service := NewAppointmentService(
		NewPgxTxRunner(pool),
		NewStores(pool),
		NewReminderScheduler(time.UTC, nil),
		nil,
		nil,
		time.UTC,
		DefaultRetentionDays,
		nil,
	)
	foreign := otherScope.UserID
	_, err := service.Create(ctx, scope, CreateAppointmentInput{
		ClientID:    client.ID,
		CounselorID: &foreign,
		Date:        "2030-03-15",
		Time:        "14:30",
		Location:    "office",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	_, err = repository.NewAppointmentRepository(pool).Create(ctx, scope, repository.CreateAppointmentInput{
		ClientID:        client.ID,
		CounselorID:     &foreign,
		StartTime:       time.Date(2030, time.March, 15, 14, 30, 0, 0, time.UTC),
		DurationMinutes: models.DefaultDurationMinutes,
		Status:          models.StatusScheduled,
		Location:        "office",
	})
	if err == nil {
		t.Fatal("expected the schema to reject a counselor of another account")
	}
}

func TestTrashSweeperAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	scope, client := createTestPractice(t, ctx, pool)
	t.Cleanup(func() { cleanupTestAccounts(t, ctx, pool, scope.AccountID) })

	repo := repository.NewAppointmentRepository(pool)
	expired, err := repo.Create(ctx, scope, repository.CreateAppointmentInput{
		ClientID: client.ID, StartTime: time.Now().UTC(), DurationMinutes: 50, Status: models.StatusScheduled, Location: "office",
	})
	if err != nil {
		t.Fatalf("Create expired: %v", err)
	}
	retained, err := repo.Create(ctx, scope, repository.CreateAppointmentInput{
		ClientID: client.ID, StartTime: time.Now().UTC(), DurationMinutes: 50, Status: models.StatusScheduled, Location: "office",
	})
	if err != nil {
		t.Fatalf("Create retained: %v", err)
	}
	now := time.Now().UTC()
	if _, err := repo.SoftDelete(ctx, scope, expired.ID, now.Add(-31*24*time.Hour)); err != nil {
		t.Fatalf("SoftDelete expired: %v", err)
	}
	if _, err := repo.SoftDelete(ctx, scope, retained.ID, now.Add(-29*24*time.Hour)); err != nil {
		t.Fatalf("SoftDelete retained: %v", err)
	}

	if _, err := NewTrashSweeper(repo, nil, DefaultRetentionDays, nil).Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := repo.GetTrashedByID(ctx, scope, expired.ID); err == nil {
		t.Fatal("expected expired appointment to be purged")
	}
	if _, err := repo.GetTrashedByID(ctx, scope, retained.ID); err != nil {
		t.Fatalf("expected retained appointment to stay in trash: %v", err)
	}
}

func TestLedgerTotalsAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	scope, client := createTestPractice(t, ctx, pool)
	t.Cleanup(func() { cleanupTestAccounts(t, ctx, pool, scope.AccountID) })

	stores := NewStores(pool)
	ledger := NewLedgerService(stores.Transactions, stores.Clients, stores.Appointments, nil, nil)
	for kind, amount := range map[string]int64{"payment": 100000, "charge": 40000, "refund": 10000} {
		if _, err := ledger.Create(ctx, scope, CreateTransactionInput{ClientID: client.ID, Amount: amount, Type: kind}); err != nil {
			t.Fatalf("Create %s: %v", kind, err)
		}
	}

	balance, err := ledger.GetBalance(ctx, scope, client.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.Balance != 50000 {
		t.Fatalf("expected 50000, got %d", balance.Balance)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func createTestPractice(t *testing.T, ctx context.Context, pool *pgxpool.Pool) (repository.Scope, *models.Client) {
	t.Helper()

	users := repository.NewUserRepository(pool)
	account, err := users.CreateAccount(ctx, "Integration Practice")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	user := &models.User{
		AccountID:    account.ID,
		Email:        fmt.Sprintf("practice-test-%s@example.com", uuid.NewString()),
		PasswordHash: "test-hash",
		FullName:     "Test Owner",
		Role:         models.RoleOwner,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	scope := repository.Scope{AccountID: account.ID, UserID: user.ID, Role: user.Role}
	client, err := repository.NewClientRepository(pool).Create(ctx, scope, repository.CreateClientInput{FullName: "Dana Reyes"})
	if err != nil {
		t.Fatalf("Create client: %v", err)
	}
	return scope, client
}

func countPendingReminders(t *testing.T, ctx context.Context, pool *pgxpool.Pool, appointmentID uuid.UUID) int {
	t.Helper()
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE appointment_id = $1 AND sent_at IS NULL`, appointmentID).Scan(&count); err != nil {
		t.Fatalf("count pending reminders: %v", err)
	}
	return count
}

func countSentReminders(t *testing.T, ctx context.Context, pool *pgxpool.Pool, appointmentID uuid.UUID) int {
	t.Helper()
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE appointment_id = $1 AND sent_at IS NOT NULL`, appointmentID).Scan(&count); err != nil {
		t.Fatalf("count sent reminders: %v", err)
	}
	return count
}

func cleanupTestAccounts(t *testing.T, ctx context.Context, pool *pgxpool.Pool, accountIDs ...uuid.UUID) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM accounts WHERE id = ANY($1)", accountIDs); err != nil {
		t.Fatalf("cleanup accounts: %v", err)
	}
}
