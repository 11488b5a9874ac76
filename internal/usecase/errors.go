package usecase

import (
	"errors"
	"fmt"

	"marketplace-payments/internal/data/entity"
)

// Sentinel errors matched with errors.Is in the HTTP layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError rejects a request before any provider call or state
// change. Fields maps field name to message for struct-tag failures;
// Message carries rule failures that span fields.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func NewFieldValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: fields}
}

// AlreadyProcessedError signals that a transaction or payout is past the
// point where the requested operation applies.
type AlreadyProcessedError struct {
	Reference string
	Status    string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("%s already processed (status %s)", e.Reference, e.Status)
}

func NewAlreadyProcessedError(reference string, status entity.TransactionStatus) *AlreadyProcessedError {
	return &AlreadyProcessedError{Reference: reference, Status: string(status)}
}
