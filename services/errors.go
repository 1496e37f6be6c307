package services

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/siparist/store"
)

var (
	// ErrValidation: bad input, rejected before touching the store.
	ErrValidation = errors.New("validation failed")
	// ErrAuth: wrong or missing credentials, or an inactive table session.
	ErrAuth = errors.New("authentication failed")
	// ErrStaleSession: cached customer credentials no longer match the table's active session.
	ErrStaleSession = errors.New("session is no longer active")
	// ErrStore: the document store failed; the caller may retry.
	ErrStore = errors.New("store operation failed")

	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
)

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// notFoundOr maps store.ErrNotFound to ErrNotFound and anything else to a StoreError.
func notFoundOr(op string, err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return storeError(op, err)
}
