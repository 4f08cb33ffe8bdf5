package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrMissingFields = errors.New("missing required fields")
	ErrUnavailable   = errors.New("store unavailable")
	ErrFieldType     = errors.New("unsupported field type")
	ErrTrailingData  = errors.New("trailing data after JSON value")
)

// NewKind annotates a sentinel kind with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind annotates err with the operation and a sentinel kind so callers can
// match either with errors.Is.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
