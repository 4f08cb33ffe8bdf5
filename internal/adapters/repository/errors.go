package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// Failure classes reported by the gateway.
var (
	ErrConflict  = errors.New("uniqueness conflict")
	ErrTransient = errors.New("store unavailable")
	ErrFatal     = errors.New("store failure")
)

// Kind is the class of a gateway failure.
type Kind int

// Failure kinds.
const (
	KindNone Kind = iota
	KindConflict
	KindTransient
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConflict:
		return ErrConflict
	case KindTransient:
		return ErrTransient
	default:
		return ErrFatal
	}
}

// KindOf reports the class of an error returned by a Store.
// Errors that carry no class are reported as fatal; nil is KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindFatal
	}
}

// classified wraps err with the operation name and its class sentinel.
func classified(op string, kind Kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind.sentinel(), err)
}

// isConnectivity covers failures shared by every driver: cancelled or
// expired contexts, dropped connections and network errors.
func isConnectivity(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Setup errors returned by Open.
var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrInvalidCA         = errors.New("no certificates found in ca bundle")
)
