package repository

import (
	"errors"
	"strings"
)

var (
	ErrMediaNotFound = errors.New("media not found")
	ErrEmptyTag      = errors.New("tag is empty")

	// ErrConstraintViolation means an upsert collided with an existing row. With a single
	// writer this cannot happen, so callers treat it as a broken integrity invariant.
	ErrConstraintViolation = errors.New("constraint violation")
)

// isUniqueViolation checks for unique constraint violations (works for both SQLite and PostgreSQL)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}
