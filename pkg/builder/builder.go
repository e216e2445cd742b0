// Package builder turns typed field selectors into the filter, update and
// projection documents the MongoDB driver understands.
//
// Each builder keeps a single active spec. Calling For, Set or Include again
// replaces the previous spec instead of combining with it: a filter built from
//
//	b.For(name, "a").For(age, 3)
//
// matches on age only. Callers that need conjunctions compose them at the
// query level (see repository.Query.Where).
//
// The first selector error is kept and every later call on the same builder
// is ignored, so a malformed selector always surfaces from the terminal call.
package builder

import (
	"fmt"

	"github.com/nimburion/mongorepo/pkg/field"
)

var (
	// ErrEmptyFilter is returned when a filter is requested before any For call.
	ErrEmptyFilter = fmt.Errorf("%w: no filter condition set", field.ErrInvalidInput)
	// ErrEmptyUpdate is returned when an update is requested before any Set call.
	ErrEmptyUpdate = fmt.Errorf("%w: no update assignment set", field.ErrInvalidInput)
	// ErrEmptyProjection is returned when a projection is requested before any Include call.
	ErrEmptyProjection = fmt.Errorf("%w: no projected field set", field.ErrInvalidInput)
	// ErrNoModifiedOn is returned by SetWithCurrentDate on documents without a ModifiedOn field.
	ErrNoModifiedOn = fmt.Errorf("%w: document has no %s field", field.ErrInvalidInput, field.ModifiedOnField)
	// ErrModifiedOnConflict is returned by SetWithCurrentDate when the assigned field is ModifiedOn itself.
	ErrModifiedOnConflict = fmt.Errorf("%w: %s cannot be set and stamped in one update", field.ErrInvalidInput, field.ModifiedOnField)
	// ErrNilConfig is returned when a nil builder configuration callback is supplied.
	ErrNilConfig = fmt.Errorf("%w: builder configuration is nil", field.ErrInvalidInput)
)

// FilterFunc configures a FilterBuilder.
type FilterFunc[T any] func(*FilterBuilder[T])

// UpdateFunc configures an UpdateBuilder.
type UpdateFunc[T any] func(*UpdateBuilder[T])

// ProjectionFunc configures a ProjectionBuilder.
type ProjectionFunc[T any] func(*ProjectionBuilder[T])
