package builder

import (
	"fmt"

	"github.com/nimburion/mongorepo/pkg/field"
	"go.mongodb.org/mongo-driver/bson"
)

// FilterSpec is an equality condition over one field.
type FilterSpec struct {
	Field   string
	Element string
	Value   any
}

// FilterBuilder builds an equality filter over a single field of T.
type FilterBuilder[T any] struct {
	spec *FilterSpec
	err  error
}

// NewFilter creates an empty FilterBuilder.
func NewFilter[T any]() *FilterBuilder[T] {
	return &FilterBuilder[T]{}
}

// For sets the active condition to sel == value, replacing any earlier one.
func (b *FilterBuilder[T]) For(sel field.Selector[T], value any) *FilterBuilder[T] {
	if b.err != nil {
		return b
	}
	name, element, err := field.ElementOf(sel)
	if err != nil {
		b.err = fmt.Errorf("filter: %w", err)
		return b
	}
	b.spec = &FilterSpec{Field: name, Element: element, Value: value}
	return b
}

// Spec returns the active condition, if any.
func (b *FilterBuilder[T]) Spec() (FilterSpec, bool) {
	if b.spec == nil {
		return FilterSpec{}, false
	}
	return *b.spec, true
}

// Err returns the first selector error recorded by the builder.
func (b *FilterBuilder[T]) Err() error {
	return b.err
}

// Filter renders the active condition as a driver filter document.
func (b *FilterBuilder[T]) Filter() (bson.D, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.spec == nil {
		return nil, ErrEmptyFilter
	}
	return bson.D{{Key: b.spec.Element, Value: b.spec.Value}}, nil
}

// BuildFilter runs fn against a fresh builder and renders the result.
func BuildFilter[T any](fn FilterFunc[T]) (bson.D, error) {
	if fn == nil {
		return nil, ErrNilConfig
	}
	b := NewFilter[T]()
	fn(b)
	return b.Filter()
}
