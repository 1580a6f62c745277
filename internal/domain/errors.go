package domain

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict indicates the stored version differs from the caller's expected version.
	ErrConflict = errors.New("version conflict")
	// ErrCustomerInUse is returned when deleting a customer that orders still reference.
	ErrCustomerInUse = errors.New("customer is referenced by sales orders")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError lists every rule a write violated.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

// Validator accumulates rule violations.
type Validator struct {
	errs []string
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(msg string) {
	v.errs = append(v.errs, msg)
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field + " is required")
	}
}

// MaxLen counts characters, not bytes.
func (v *Validator) MaxLen(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.Add(field + " must be at most " + strconv.Itoa(max) + " characters")
	}
}

// Err returns nil when no rule was violated.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}
