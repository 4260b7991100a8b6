package db

import (
	"database/sql"
	"errors"

	"travelbooking/internal/domain"

	"github.com/go-sql-driver/mysql"
)

const (
	errDuplicateKey    = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

// MapError turns MySQL constraint failures into domain errors and leaves
// everything else untouched.
func MapError(resource string, err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errDuplicateKey:
		return domain.ConflictError{Resource: resource, Msg: "already exists", Err: err}
	case errNoReferencedRow:
		return domain.NotFoundError{Resource: resource, Err: err}
	case errRowIsReferenced:
		return domain.ConflictError{Resource: resource, Msg: "still referenced", Err: err}
	}
	return err
}

type QueryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings as NULL instead of ''.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// HasColumn reports whether table has column. Query errors count as false.
func HasColumn(q QueryRower, table, column string) bool {
	var name sql.NullString
	err := q.QueryRow(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// Placeholders returns "?, ?, ?" for n arguments.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',', ' ')
		}
		b = append(b, '?')
	}
	return string(b)
}
