// Package store owns database connections for the catalog backends.
package store

import "context"

// Handle is the lifecycle surface shared by every backend.
type Handle interface {
	HealthCheck(ctx context.Context) error
	Close() error
}

var (
	_ Handle = (*SQLite)(nil)
	_ Handle = (*Postgres)(nil)
)
