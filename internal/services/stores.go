package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

type appointmentStore interface {
	Create(ctx context.Context, scope repository.Scope, input repository.CreateAppointmentInput) (*models.Appointment, error)
	GetByID(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.Appointment, error)
	GetTrashedByID(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.Appointment, error)
	ListRange(ctx context.Context, scope repository.Scope, filter repository.AppointmentRangeFilter) ([]models.AppointmentDetail, error)
	ListOverlapping(ctx context.Context, scope repository.Scope, counselorID *uuid.UUID, start time.Time, durationMinutes int, excludedID uuid.UUID) ([]uuid.UUID, error)
	UpdateStatusIfCurrent(ctx context.Context, scope repository.Scope, id uuid.UUID, current, next models.AppointmentStatus) (*models.Appointment, error)
	Reschedule(ctx context.Context, scope repository.Scope, id uuid.UUID, start time.Time, durationMinutes int, status models.AppointmentStatus) (*models.Appointment, error)
	SoftDelete(ctx context.Context, scope repository.Scope, id uuid.UUID, deletedAt time.Time) (*models.Appointment, error)
	Restore(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.Appointment, error)
	ListTrashed(ctx context.Context, scope repository.Scope) ([]models.Appointment, error)
	PermanentDelete(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	NextForClient(ctx context.Context, scope repository.Scope, clientID uuid.UUID, from time.Time) (*models.Appointment, error)
}

type clientStore interface {
	Create(ctx context.Context, scope repository.Scope, input repository.CreateClientInput) (*models.Client, error)
	GetByID(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, scope repository.Scope, filter repository.ClientListFilter) ([]models.Client, int, error)
	Update(ctx context.Context, scope repository.Scope, id uuid.UUID, input repository.UpdateClientInput) (*models.Client, error)
}

type notificationStore interface {
	CreateBatch(ctx context.Context, scope repository.Scope, inputs []repository.CreateNotificationInput) ([]models.Notification, error)
	DeletePendingForAppointment(ctx context.Context, scope repository.Scope, appointmentID uuid.UUID) (int64, error)
	ListForUser(ctx context.Context, scope repository.Scope, filter repository.NotificationListFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, scope repository.Scope) (int64, error)
	CountUnread(ctx context.Context, scope repository.Scope) (int, error)
}

type settingsStore interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error)
	Update(ctx context.Context, userID uuid.UUID, input repository.UpdateNotificationSettingsInput) (*models.NotificationSettings, error)
}

type userStore interface {
	GetMember(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.User, error)
}

type transactionStore interface {
	Create(ctx context.Context, scope repository.Scope, input repository.CreateTransactionInput) (*models.Transaction, error)
	GetByID(ctx context.Context, scope repository.Scope, id uuid.UUID) (*models.Transaction, error)
	ListForClient(ctx context.Context, scope repository.Scope, clientID uuid.UUID) ([]models.Transaction, error)
	Delete(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	TotalsForClient(ctx context.Context, scope repository.Scope, clientID uuid.UUID) (models.LedgerTotals, error)
}

// Stores groups the repositories bound to one connection or transaction.
type Stores struct {
	Appointments  appointmentStore
	Clients       clientStore
	Notifications notificationStore
	Settings      settingsStore
	Transactions  transactionStore
	Users         userStore
}

func NewStores(db repository.DBTX) Stores {
	return Stores{
		Appointments:  repository.NewAppointmentRepository(db),
		Clients:       repository.NewClientRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Settings:      repository.NewNotificationSettingsRepository(db),
		Transactions:  repository.NewTransactionRepository(db),
		Users:         repository.NewUserRepository(db),
	}
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(stores Stores) error) error
}

type PgxTxRunner struct {
	db *pgxpool.Pool
}

func NewPgxTxRunner(db *pgxpool.Pool) *PgxTxRunner {
	return &PgxTxRunner{db: db}
}

func (r *PgxTxRunner) InTx(ctx context.Context, fn func(stores Stores) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(NewStores(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
