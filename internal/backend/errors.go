package backend

import (
	"errors"
	"fmt"
)

// Error kinds. Matched with errors.Is against errors returned from backend
// operations.
var (
	ErrConnection           = errors.New("backend connection error")
	ErrNotFound             = errors.New("container not found")
	ErrImageNotFound        = errors.New("container image not found")
	ErrSnapshotNotFound     = errors.New("container snapshot not found")
	ErrIllegalSpecification = errors.New("illegal container specification")
	ErrIllegalState         = errors.New("illegal container state")
	ErrReadOnly             = errors.New("backend is read-only")
	ErrAuthentication       = errors.New("backend authentication error")
	ErrUnsupported          = errors.New("operation is not supported by the backend")
)

// Error is the designated wrapper for everything that goes wrong inside a
// backend. Raw engine client errors must never cross the backend boundary:
// every operation wraps its failures into this type before returning them.
type Error struct {
	Backend   string
	Operation string
	Kind      error
	cause     error
}

func (e *Error) Error() string {
	message := fmt.Sprintf("%s backend: %s", e.Backend, e.Operation)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", message, e.cause)
	}
	return fmt.Sprintf("%s: %s", message, e.Kind)
}

func (e *Error) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// WrapError wraps err into the designated backend error type. Already-wrapped
// errors pass through unchanged so the original operation context is
// preserved.
func WrapError(backendName string, operation string, kind error, err error) error {
	var wrapped *Error
	if errors.As(err, &wrapped) {
		return err
	}

	return &Error{
		Backend:   backendName,
		Operation: operation,
		Kind:      kind,
		cause:     err,
	}
}

// NewError reports a failure that has no underlying cause (e.g. an illegal
// state detected by the backend itself).
func NewError(backendName string, operation string, kind error) error {
	return &Error{
		Backend:   backendName,
		Operation: operation,
		Kind:      kind,
	}
}
