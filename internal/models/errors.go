package stamps

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCodeInactive       = errors.New("code is inactive")
	ErrInsufficientStamps = errors.New("not enough stamps")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("record was changed concurrently")
	ErrKeyNotFound        = errors.New("key not found")
	ErrLedgerMismatch     = errors.New("counters do not match transactions")
	ErrDuplicateContact   = errors.New("customer with this contact already exists")
)

// Ошибка заполнения формы
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
