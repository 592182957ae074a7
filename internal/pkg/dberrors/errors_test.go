package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestExclusionConstraint(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeExclusionViolation, ConstraintName: "sessions_room_no_overlap"})

	name, ok := ExclusionConstraint(err)
	assert.True(t, ok)
	assert.Equal(t, "sessions_room_no_overlap", name)

	_, ok = ExclusionConstraint(errors.New("boom"))
	assert.False(t, ok)
}

func TestClassifiers(t *testing.T) {
	unique := &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "rooms_building_name_key"}
	fk := &pgconn.PgError{Code: CodeForeignKeyViolation}
	lock := &pgconn.PgError{Code: CodeLockNotAvailable}

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsDuplicateConstraintError(unique, "rooms_building_name_key"))
	assert.False(t, IsDuplicateConstraintError(unique, "other"))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.True(t, IsLockTimeout(lock))
	assert.False(t, IsLockTimeout(fk))
}

func TestForeignKeyConstraint(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeForeignKeyViolation, ConstraintName: "sessions_room_id_fkey"})
	name, ok := ForeignKeyConstraint(err)
	assert.True(t, ok)
	assert.Equal(t, "sessions_room_id_fkey", name)

	_, ok = ForeignKeyConstraint(&pgconn.PgError{Code: CodeUniqueViolation})
	assert.False(t, ok)
}
