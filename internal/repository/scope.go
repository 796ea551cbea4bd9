package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrMissingScope = errors.New("missing account scope")

// Scope is the verified caller identity resolved from the auth token.
// Every tenant query is built from it, so the account filter cannot be forgotten.
type Scope struct {
	AccountID uuid.UUID
	UserID    uuid.UUID
	Role      string
}

func (s Scope) Valid() bool {
	return s.AccountID != uuid.Nil && s.UserID != uuid.Nil
}

type whereBuilder struct {
	parts []string
	args  []any
}

// where starts a WHERE clause whose first condition is always the account filter ($1).
func (s Scope) where(accountColumn string) (*whereBuilder, error) {
	if !s.Valid() {
		return nil, ErrMissingScope
	}
	return &whereBuilder{
		parts: []string{accountColumn + " = $1"},
		args:  []any{s.AccountID},
	}, nil
}

// eq appends "column = $n".
func (w *whereBuilder) eq(column string, value any) *whereBuilder {
	w.args = append(w.args, value)
	w.parts = append(w.parts, fmt.Sprintf("%s = $%d", column, len(w.args)))
	return w
}

// cond appends a condition with a single placeholder written as %d, e.g. "start_time >= $%d".
func (w *whereBuilder) cond(format string, value any) *whereBuilder {
	w.args = append(w.args, value)
	w.parts = append(w.parts, fmt.Sprintf(format, len(w.args)))
	return w
}

func (w *whereBuilder) raw(condition string) *whereBuilder {
	w.parts = append(w.parts, condition)
	return w
}

// arg registers an extra positional argument and returns its placeholder.
func (w *whereBuilder) arg(value any) string {
	w.args = append(w.args, value)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) sql() string {
	return strings.Join(w.parts, " AND ")
}
