package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
)

const clientColumns = `id, account_id, full_name, email, phone, notes, created_at, updated_at`

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

type ClientListFilter struct {
	Search string
	Limit  int
	Offset int
}

type ClientRepository struct {
	db DBTX
}

func NewClientRepository(db DBTX) *ClientRepository {
	return &ClientRepository{db: db}
}

func scanClient(row rowScanner, client *models.Client) error {
	return row.Scan(
		&client.ID,
		&client.AccountID,
		&client.FullName,
		&client.Email,
		&client.Phone,
		&client.Notes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
}

func (r *ClientRepository) Create(ctx context.Context, scope Scope, input CreateClientInput) (*models.Client, error) {
	if !scope.Valid() {
		return nil, ErrMissingScope
	}
	query := `
		INSERT INTO clients (account_id, full_name, email, phone, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + clientColumns

	var client models.Client
	err := scanClient(
		r.db.QueryRow(ctx, query, scope.AccountID, input.FullName, input.Email, input.Phone, input.Notes),
		&client,
	)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*models.Client, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("id", id)

	var client models.Client
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s`, clientColumns, w.sql())
	if err := scanClient(r.db.QueryRow(ctx, query, w.args...), &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) List(ctx context.Context, scope Scope, filter ClientListFilter) ([]models.Client, int, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, 0, err
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := w.arg("%" + search + "%")
		w.raw(fmt.Sprintf("(full_name ILIKE %s OR COALESCE(email, '') ILIKE %s)", pattern, pattern))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM clients WHERE %s`, w.sql())
	if err := r.db.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append([]any{}, w.args...)
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE %s
		ORDER BY full_name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, clientColumns, w.sql(), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	clients := make([]models.Client, 0)
	for rows.Next() {
		var client models.Client
		if err := scanClient(rows, &client); err != nil {
			return nil, 0, err
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *ClientRepository) Update(
	ctx context.Context,
	scope Scope,
	id uuid.UUID,
	input UpdateClientInput,
) (*models.Client, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	nameArg := w.arg(input.FullName)
	emailArg := w.arg(input.Email)
	phoneArg := w.arg(input.Phone)
	notesArg := w.arg(input.Notes)
	w.eq("id", id)

	query := fmt.Sprintf(`
		UPDATE clients
		SET full_name = COALESCE(%s, full_name),
			email = COALESCE(%s, email),
			phone = COALESCE(%s, phone),
			notes = COALESCE(%s, notes),
			updated_at = NOW()
		WHERE %s
		RETURNING %s
	`, nameArg, emailArg, phoneArg, notesArg, w.sql(), clientColumns)

	var client models.Client
	if err := scanClient(r.db.QueryRow(ctx, query, w.args...), &client); err != nil {
		return nil, err
	}
	return &client, nil
}
