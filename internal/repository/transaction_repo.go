package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
)

const transactionColumns = `id, account_id, client_id, appointment_id, amount, type, method, date, status, created_at`

type CreateTransactionInput struct {
	ClientID      uuid.UUID
	AppointmentID *uuid.UUID
	Amount        int64
	Type          models.TransactionType
	Method        string
	Date          time.Time
	Status        string
}

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func scanTransaction(row rowScanner, txn *models.Transaction) error {
	return row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.ClientID,
		&txn.AppointmentID,
		&txn.Amount,
		&txn.Type,
		&txn.Method,
		&txn.Date,
		&txn.Status,
		&txn.CreatedAt,
	)
}

func (r *TransactionRepository) Create(
	ctx context.Context,
	scope Scope,
	input CreateTransactionInput,
) (*models.Transaction, error) {
	if !scope.Valid() {
		return nil, ErrMissingScope
	}
	query := `
		INSERT INTO transactions (account_id, client_id, appointment_id, amount, type, method, date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + transactionColumns

	var txn models.Transaction
	err := scanTransaction(r.db.QueryRow(
		ctx,
		query,
		scope.AccountID,
		input.ClientID,
		input.AppointmentID,
		input.Amount,
		input.Type,
		input.Method,
		input.Date,
		input.Status,
	), &txn)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*models.Transaction, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("id", id)

	var txn models.Transaction
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s`, transactionColumns, w.sql())
	if err := scanTransaction(r.db.QueryRow(ctx, query, w.args...), &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) ListForClient(
	ctx context.Context,
	scope Scope,
	clientID uuid.UUID,
) ([]models.Transaction, error) {
	w, err := scope.where("account_id")
	if err != nil {
		return nil, err
	}
	w.eq("client_id", clientID)
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE %s
		ORDER BY date DESC, created_at DESC
	`, transactionColumns, w.sql())

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var txn models.Transaction
		if err := scanTransaction(rows, &txn); err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	w, err := scope.where("account_id")
	if err != nil {
		return err
	}
	w.eq("id", id)
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM transactions WHERE %s`, w.sql()), w.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// TotalsForClient sums amounts per transaction type. Balance is derived from it on every call.
func (r *TransactionRepository) TotalsForClient(
	ctx context.Context,
	scope Scope,
	clientID uuid.UUID,
) (models.LedgerTotals, error) {
	var totals models.LedgerTotals
	w, err := scope.where("account_id")
	if err != nil {
		return totals, err
	}
	w.eq("client_id", clientID)
	query := fmt.Sprintf(`
		SELECT type, COALESCE(SUM(amount), 0)::bigint
		FROM transactions
		WHERE %s
		GROUP BY type
	`, w.sql())

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return totals, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind models.TransactionType
			sum  int64
		)
		if err := rows.Scan(&kind, &sum); err != nil {
			return totals, err
		}
		totals.Add(kind, sum)
	}
	if err := rows.Err(); err != nil {
		return totals, err
	}
	return totals, nil
}
