package builder

import (
	"fmt"

	"github.com/nimburion/mongorepo/pkg/field"
	"go.mongodb.org/mongo-driver/bson"
)

// ProjectionSpec includes one field; the identifier is always excluded.
type ProjectionSpec struct {
	Field   string
	Element string
}

// ProjectionBuilder builds a single-field inclusion projection over T.
type ProjectionBuilder[T any] struct {
	spec *ProjectionSpec
	err  error
}

// NewProjection creates an empty ProjectionBuilder.
func NewProjection[T any]() *ProjectionBuilder[T] {
	return &ProjectionBuilder[T]{}
}

// Include projects sel, replacing any earlier inclusion.
func (b *ProjectionBuilder[T]) Include(sel field.Selector[T]) *ProjectionBuilder[T] {
	if b.err != nil {
		return b
	}
	name, element, err := field.ElementOf(sel)
	if err != nil {
		b.err = fmt.Errorf("projection: %w", err)
		return b
	}
	b.spec = &ProjectionSpec{Field: name, Element: element}
	return b
}

// Spec returns the active inclusion, if any.
func (b *ProjectionBuilder[T]) Spec() (ProjectionSpec, bool) {
	if b.spec == nil {
		return ProjectionSpec{}, false
	}
	return *b.spec, true
}

// Err returns the first selector error recorded by the builder.
func (b *ProjectionBuilder[T]) Err() error {
	return b.err
}

// ProjectDefinition renders the projection document.
func (b *ProjectionBuilder[T]) ProjectDefinition() (bson.D, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.spec == nil {
		return nil, ErrEmptyProjection
	}
	// the identifier exclusion wins over including the identifier itself
	if b.spec.Element == field.IDElement {
		return bson.D{{Key: field.IDElement, Value: 0}}, nil
	}
	return bson.D{
		{Key: b.spec.Element, Value: 1},
		{Key: field.IDElement, Value: 0},
	}, nil
}

// BuildProjection runs fn against a fresh builder and returns the builder's
// spec together with the rendered projection.
func BuildProjection[T any](fn ProjectionFunc[T]) (ProjectionSpec, bson.D, error) {
	if fn == nil {
		return ProjectionSpec{}, nil, ErrNilConfig
	}
	b := NewProjection[T]()
	fn(b)
	doc, err := b.ProjectDefinition()
	if err != nil {
		return ProjectionSpec{}, nil, err
	}
	spec, _ := b.Spec()
	return spec, doc, nil
}
