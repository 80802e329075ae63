package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a method has no usable configuration.
	ErrConfiguration = errors.New("payment configuration error")
	// ErrValidation is returned for bad caller input.
	ErrValidation = errors.New("validation error")
	// ErrLimitExceeded is returned when an amount breaks a min/max/daily/monthly bound.
	ErrLimitExceeded = errors.New("payment limit exceeded")
	// ErrNotFound is returned when a mutation targets a missing row.
	ErrNotFound = errors.New("not found")
	// ErrPersistence is returned when the store rejects a write.
	ErrPersistence = errors.New("persistence error")
	// ErrProvider is returned for provider transport or non-2xx failures.
	ErrProvider = errors.New("provider error")
	// ErrUnsupportedMethod is returned for an unknown method tag.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrNotImplemented is returned by operations a method does not support yet.
	ErrNotImplemented = errors.New("not implemented")
	// ErrInsufficientBalance is returned when a wallet cannot cover a payment.
	ErrInsufficientBalance = fmt.Errorf("%w: Insufficient wallet balance", ErrValidation)
	// ErrAlreadyExists is returned on unique constraint violations.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when a serializable transaction could not commit.
	ErrConflict = errors.New("concurrent update conflict")
)

// UnsupportedMethodError names the rejected tag.
func UnsupportedMethodError(method Method) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
}

// NotImplementedError names the method and operation.
func NotImplementedError(method Method, operation string) error {
	return fmt.Errorf("%w: %s %s", ErrNotImplemented, method, operation)
}

// ValidationError wraps msg as a validation failure.
func ValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// ConfigurationError wraps msg as a configuration failure.
func ConfigurationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}
