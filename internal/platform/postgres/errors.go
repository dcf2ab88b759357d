package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL, которые мы различаем
const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
)

func pqCode(err error) (string, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

// IsUniqueViolation reports a unique constraint violation and its name.
func IsUniqueViolation(err error) (bool, string) {
	code, constraint := pqCode(err)
	return code == codeUniqueViolation, constraint
}

// IsCheckViolation reports a CHECK constraint violation and its name.
func IsCheckViolation(err error) (bool, string) {
	code, constraint := pqCode(err)
	return code == codeCheckViolation, constraint
}

// IsForeignKeyViolation reports a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	code, _ := pqCode(err)
	return code == codeForeignKeyViolation
}
