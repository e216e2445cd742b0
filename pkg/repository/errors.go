package repository

import (
	"errors"
	"fmt"

	"github.com/nimburion/mongorepo/pkg/field"
)

var (
	// ErrNilDocument is returned when a nil document is inserted.
	ErrNilDocument = fmt.Errorf("%w: document is nil", field.ErrInvalidInput)
	// ErrNilDatabase is returned when a repository is created without a database.
	ErrNilDatabase = fmt.Errorf("%w: database is nil", field.ErrInvalidInput)
	// ErrExecutorRequired is returned when a database is created without an executor.
	ErrExecutorRequired = errors.New("repository: executor is required")
)

// storeError wraps a store failure with the operation and collection.
func storeError(op, collection string, err error) error {
	return fmt.Errorf("%s %s: %w", op, collection, err)
}
