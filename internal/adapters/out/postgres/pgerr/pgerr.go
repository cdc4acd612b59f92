// Package pgerr classifies PostgreSQL driver errors for the gorm repositories.
package pgerr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// UniqueViolation reports whether err is a unique constraint violation and, when the
// driver says so, the name of the violated constraint or index.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// IsUniqueViolationOf reports whether err violates the named constraint.
func IsUniqueViolationOf(err error, constraint string) bool {
	name, ok := UniqueViolation(err)
	return ok && strings.EqualFold(name, constraint)
}

// LikePattern wraps s for a contains match with ILIKE, escaping the wildcards it holds.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
