package apperrors

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

var pgKeyDetail = regexp.MustCompile(`Key \(([^)]+)\)=`)

// FromStorage translates a persistence error into the taxonomy.
func FromStorage(err error, notFoundMessage string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(KindNotFound, notFoundMessage, err)
	}
	if field, ok := UniqueViolation(err); ok {
		return New(KindConflict, field+" already exists", err)
	}
	return Internal("Internal server error", err)
}

// UniqueViolation reports whether err is a uniqueness-constraint failure and
// names the offending column when the driver exposes it.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if m := pgKeyDetail.FindStringSubmatch(pgErr.Detail); m != nil {
			return m[1], true
		}
		return constraintColumn(pgErr.ConstraintName), true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		// "UNIQUE constraint failed: users.email"
		msg := liteErr.Error()
		if i := strings.LastIndex(msg, "."); i >= 0 && i < len(msg)-1 {
			return msg[i+1:], true
		}
		return "record", true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "record", true
	}
	return "", false
}

// constraintColumn turns gorm's idx_<table>_<column> index names into the column.
func constraintColumn(name string) string {
	parts := strings.SplitN(strings.TrimPrefix(name, "idx_"), "_", 2)
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	if name == "" {
		return "record"
	}
	return name
}
