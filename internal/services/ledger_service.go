package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

const defaultTransactionStatus = "completed"

type CreateTransactionInput struct {
	ClientID      uuid.UUID
	AppointmentID *uuid.UUID
	Amount        int64
	Type          string
	Method        string
	Date          *time.Time
	Status        string
}

type LedgerService struct {
	transactions transactionStore
	clients      clientStore
	appointments appointmentStore
	audit        *AuditLog
	now          func() time.Time
}

func NewLedgerService(
	transactions transactionStore,
	clients clientStore,
	appointments appointmentStore,
	audit *AuditLog,
	now func() time.Time,
) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		transactions: transactions,
		clients:      clients,
		appointments: appointments,
		audit:        audit,
		now:          now,
	}
}

func (s *LedgerService) Create(
	ctx context.Context,
	scope repository.Scope,
	input CreateTransactionInput,
) (*models.Transaction, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	kind := models.TransactionType(strings.ToLower(strings.TrimSpace(input.Type)))
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: type must be payment, charge or refund", ErrValidation)
	}
	if _, err := s.clients.GetByID(ctx, scope, input.ClientID); err != nil {
		return nil, notFound(err)
	}
	if input.AppointmentID != nil {
		appointment, err := s.appointments.GetByID(ctx, scope, *input.AppointmentID)
		if err != nil {
			return nil, notFound(err)
		}
		if appointment.ClientID != input.ClientID {
			return nil, fmt.Errorf("%w: appointment belongs to another client", ErrValidation)
		}
	}

	date := s.now().UTC()
	if input.Date != nil {
		date = input.Date.UTC()
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = defaultTransactionStatus
	}

	txn, err := s.transactions.Create(ctx, scope, repository.CreateTransactionInput{
		ClientID:      input.ClientID,
		AppointmentID: input.AppointmentID,
		Amount:        input.Amount,
		Type:          kind,
		Method:        strings.TrimSpace(input.Method),
		Date:          date,
		Status:        status,
	})
	if err != nil {
		return nil, err
	}
	s.record("transaction.created", scope, txn.ID)
	return txn, nil
}

func (s *LedgerService) ListForClient(
	ctx context.Context,
	scope repository.Scope,
	clientID uuid.UUID,
) ([]models.Transaction, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetByID(ctx, scope, clientID); err != nil {
		return nil, notFound(err)
	}
	return s.transactions.ListForClient(ctx, scope, clientID)
}

// Delete requires the owner role. A transaction of another account reads as not found.
func (s *LedgerService) Delete(ctx context.Context, scope repository.Scope, id uuid.UUID) error {
	if err := requireRole(scope, models.RoleOwner); err != nil {
		return err
	}
	if err := s.transactions.Delete(ctx, scope, id); err != nil {
		return notFound(err)
	}
	s.record("transaction.deleted", scope, id)
	return nil
}

// GetBalance is computed on every call from the stored transactions.
func (s *LedgerService) GetBalance(
	ctx context.Context,
	scope repository.Scope,
	clientID uuid.UUID,
) (*models.ClientBalance, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetByID(ctx, scope, clientID); err != nil {
		return nil, notFound(err)
	}
	totals, err := s.transactions.TotalsForClient(ctx, scope, clientID)
	if err != nil {
		return nil, err
	}
	return &models.ClientBalance{
		ClientID: clientID,
		Totals:   totals,
		Balance:  totals.Balance(),
	}, nil
}

func (s *LedgerService) record(eventType string, scope repository.Scope, entityID uuid.UUID) {
	s.audit.Record(AuditEvent{
		Type:       eventType,
		AccountID:  scope.AccountID.String(),
		ActorID:    scope.UserID.String(),
		EntityID:   entityID.String(),
		OccurredAt: s.now().UTC(),
	})
}
