package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestViolations(t *testing.T) {
	pqUnique := &pq.Error{Code: "23505"}
	pgxFK := &pgconn.PgError{Code: "23503"}

	assert.True(t, IsUniqueViolation(pqUnique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pqUnique)))
	assert.False(t, IsForeignKeyViolation(pqUnique))

	assert.True(t, IsForeignKeyViolation(pgxFK))
	assert.False(t, IsUniqueViolation(pgxFK))

	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}

func TestNewPostgresDB_UnknownDriver(t *testing.T) {
	_, err := NewPostgresDB("mysql", "dsn")
	assert.Error(t, err)
}
