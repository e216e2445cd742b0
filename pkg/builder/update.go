package builder

import (
	"fmt"
	"reflect"

	"github.com/nimburion/mongorepo/pkg/field"
	"go.mongodb.org/mongo-driver/bson"
)

// UpdateSpec is a single field assignment, optionally stamping ModifiedOn.
type UpdateSpec struct {
	Field   string
	Element string
	Value   any
	// StampModified asks the server to set ModifiedElement to the current date.
	StampModified   bool
	ModifiedElement string
}

// UpdateBuilder builds a single-field $set update over T.
type UpdateBuilder[T any] struct {
	spec *UpdateSpec
	err  error
}

// NewUpdate creates an empty UpdateBuilder.
func NewUpdate[T any]() *UpdateBuilder[T] {
	return &UpdateBuilder[T]{}
}

// Set assigns value to sel, replacing any earlier assignment.
func (b *UpdateBuilder[T]) Set(sel field.Selector[T], value any) *UpdateBuilder[T] {
	return b.set(sel, value, false)
}

// SetWithCurrentDate assigns value to sel and stamps ModifiedOn with the
// server's current date when the update executes.
func (b *UpdateBuilder[T]) SetWithCurrentDate(sel field.Selector[T], value any) *UpdateBuilder[T] {
	return b.set(sel, value, true)
}

func (b *UpdateBuilder[T]) set(sel field.Selector[T], value any, stamp bool) *UpdateBuilder[T] {
	if b.err != nil {
		return b
	}
	name, element, err := field.ElementOf(sel)
	if err != nil {
		b.err = fmt.Errorf("update: %w", err)
		return b
	}

	spec := &UpdateSpec{Field: name, Element: element, Value: value}
	if stamp {
		if !field.HasField[T](field.ModifiedOnField) {
			b.err = ErrNoModifiedOn
			return b
		}
		spec.StampModified = true
		spec.ModifiedElement = field.ElementName(reflect.TypeFor[T](), field.ModifiedOnField)
		if spec.ModifiedElement == element {
			b.err = ErrModifiedOnConflict
			return b
		}
	}
	b.spec = spec
	return b
}

// Spec returns the active assignment, if any.
func (b *UpdateBuilder[T]) Spec() (UpdateSpec, bool) {
	if b.spec == nil {
		return UpdateSpec{}, false
	}
	return *b.spec, true
}

// Err returns the first error recorded by the builder.
func (b *UpdateBuilder[T]) Err() error {
	return b.err
}

// UpdateDefinition renders the active assignment as a driver update document.
func (b *UpdateBuilder[T]) UpdateDefinition() (bson.D, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.spec == nil {
		return nil, ErrEmptyUpdate
	}

	update := bson.D{{Key: "$set", Value: bson.D{{Key: b.spec.Element, Value: b.spec.Value}}}}
	if b.spec.StampModified {
		update = append(update, bson.E{
			Key:   "$currentDate",
			Value: bson.D{{Key: b.spec.ModifiedElement, Value: true}},
		})
	}
	return update, nil
}

// BuildUpdate runs fn against a fresh builder and renders the result.
func BuildUpdate[T any](fn UpdateFunc[T]) (bson.D, error) {
	if fn == nil {
		return nil, ErrNilConfig
	}
	b := NewUpdate[T]()
	fn(b)
	return b.UpdateDefinition()
}
