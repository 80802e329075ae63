package repository

import (
	"errors"

	"github.com/amirasaad/marketpay/pkg/domain/payment"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM and Postgres errors to domain errors.
// Unknown errors are returned unchanged.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return payment.ErrAlreadyExists
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return payment.ErrConflict
		}
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return payment.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return payment.ErrNotFound
		}
		currentErr = errors.Unwrap(currentErr)
	}
	return err
}

// WrapError runs a GORM operation and maps its error.
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}

// isRetryable reports whether err is a serialization failure worth retrying.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return errors.Is(err, payment.ErrConflict)
}
