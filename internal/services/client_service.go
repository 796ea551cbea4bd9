package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

type CreateClientInput struct {
	FullName string
	Email    *string
	Phone    *string
	Notes    *string
}

type UpdateClientInput struct {
	FullName *string
	Email    *string
	Phone    *string
	Notes    *string
}

type ClientService struct {
	clients      clientStore
	appointments appointmentStore
	loc          *time.Location
	now          func() time.Time
}

func NewClientService(
	clients clientStore,
	appointments appointmentStore,
	loc *time.Location,
	now func() time.Time,
) *ClientService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{clients: clients, appointments: appointments, loc: loc, now: now}
}

// DeriveSchedulingProjection renders the legacy nextSession/sessionTime fields from
// the client's next appointment in the practice timezone.
func DeriveSchedulingProjection(next *models.Appointment, loc *time.Location) models.SchedulingProjection {
	if next == nil {
		return models.SchedulingProjection{}
	}
	if loc == nil {
		loc = time.UTC
	}
	local := next.StartTime.In(loc)
	date := local.Format(dateLayout)
	clock := local.Format(clockLayout)
	return models.SchedulingProjection{
		NextSession:       &date,
		SessionTime:       &clock,
		IsSessionCanceled: next.Status == models.StatusCanceled,
	}
}

func (s *ClientService) Create(
	ctx context.Context,
	scope repository.Scope,
	input CreateClientInput,
) (*models.ClientDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrValidation)
	}

	client, err := s.clients.Create(ctx, scope, repository.CreateClientInput{
		FullName: name,
		Email:    trimOptional(input.Email),
		Phone:    trimOptional(input.Phone),
		Notes:    input.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &models.ClientDetail{Client: *client}, nil
}

func (s *ClientService) Get(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
) (*models.ClientDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, scope, id)
	if err != nil {
		return nil, notFound(err)
	}
	return s.withProjection(ctx, scope, client)
}

func (s *ClientService) List(
	ctx context.Context,
	scope repository.Scope,
	search string,
	page int,
	limit int,
) ([]models.ClientDetail, int, error) {
	if err := requireMember(scope); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	clients, total, err := s.clients.List(ctx, scope, repository.ClientListFilter{
		Search: search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, 0, err
	}

	details := make([]models.ClientDetail, 0, len(clients))
	for i := range clients {
		detail, err := s.withProjection(ctx, scope, &clients[i])
		if err != nil {
			return nil, 0, err
		}
		details = append(details, *detail)
	}
	return details, total, nil
}

func (s *ClientService) Update(
	ctx context.Context,
	scope repository.Scope,
	id uuid.UUID,
	input UpdateClientInput,
) (*models.ClientDetail, error) {
	if err := requireMember(scope); err != nil {
		return nil, err
	}
	if input.FullName != nil && strings.TrimSpace(*input.FullName) == "" {
		return nil, fmt.Errorf("%w: full_name cannot be empty", ErrValidation)
	}

	client, err := s.clients.Update(ctx, scope, id, repository.UpdateClientInput{
		FullName: trimOptional(input.FullName),
		Email:    trimOptional(input.Email),
		Phone:    trimOptional(input.Phone),
		Notes:    input.Notes,
	})
	if err != nil {
		return nil, notFound(err)
	}
	return s.withProjection(ctx, scope, client)
}

func (s *ClientService) withProjection(
	ctx context.Context,
	scope repository.Scope,
	client *models.Client,
) (*models.ClientDetail, error) {
	next, err := s.appointments.NextForClient(ctx, scope, client.ID, s.now().UTC())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		next = nil
	}
	return &models.ClientDetail{
		Client:               *client,
		SchedulingProjection: DeriveSchedulingProjection(next, s.loc),
	}, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
