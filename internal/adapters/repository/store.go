// Package repository is the persistence gateway for user accounts.
package repository

import (
	"context"

	"github.com/okian/accounts/internal/domain/model"
)

// Store provides access to the users table.
//
// Every error returned by Insert, List and Ping wraps exactly one of
// ErrConflict, ErrTransient or ErrFatal.
type Store interface {
	// Insert adds a single user row.
	Insert(ctx context.Context, u model.User) error
	// List returns every user in store order. An empty table yields an empty, non-nil slice.
	List(ctx context.Context) ([]model.User, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	// Stats reports connection pool statistics.
	Stats() PoolStats
	// Close releases the pool.
	Close() error
}

// PoolStats is a snapshot of the connection pool.
type PoolStats struct {
	MaxOpen        int   `json:"maxOpenConnections"`
	Open           int   `json:"openConnections"`
	InUse          int   `json:"inUse"`
	Idle           int   `json:"idle"`
	WaitCount      int64 `json:"waitCount"`
	WaitDurationMs int64 `json:"waitDurationMs"`
}
