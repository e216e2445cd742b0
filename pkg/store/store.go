// Package store defines the lifecycle contract shared by the MongoDB adapter,
// the repository executor and the repository database handle.
package store

import "context"

// Adapter is the minimal lifecycle and health contract for storage adapters.
type Adapter interface {
	HealthCheck(ctx context.Context) error
	Close() error
}
