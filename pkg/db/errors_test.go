package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolationMatchesSQLState(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	assert.True(t, IsUniqueViolation(pgxErr, ""))
	assert.True(t, IsUniqueViolation(pgxErr, "order_number"))
	assert.False(t, IsUniqueViolation(pgxErr, "users_email_key"))

	wrapped := fmt.Errorf("create order: %w", pgxErr)
	assert.True(t, IsUniqueViolation(wrapped, "order_number"))

	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	assert.True(t, IsUniqueViolation(pqErr, "users_email_key"))

	fkErr := &pgconn.PgError{Code: "23503", ConstraintName: "orders_user_id_fkey"}
	assert.False(t, IsUniqueViolation(fkErr, ""))
	assert.False(t, IsUniqueViolation(fkErr, "orders_user_id_fkey"))
}

func TestIsUniqueViolationFallsBackToMessage(t *testing.T) {
	sqliteErr := errors.New("UNIQUE constraint failed: orders.order_number")
	assert.True(t, IsUniqueViolation(sqliteErr, ""))
	assert.True(t, IsUniqueViolation(sqliteErr, "order_number"))

	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
