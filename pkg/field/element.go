package field

import (
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsoncodec"
)

const (
	// IDElement is the store key of the document identifier.
	IDElement = "_id"
	// ModifiedOnField is the declared name of the modification timestamp field.
	ModifiedOnField = "ModifiedOn"
)

// ElementName maps a declared field name of t to the key the BSON codec stores
// it under: the bson tag name, or the lowercased field name when untagged.
// Fields promoted through an embedded struct use the inner key when the
// embedding is tagged ",inline" and a dotted path otherwise. Names that are
// not fields of t (methods, unknown names) are returned unchanged.
func ElementName(t reflect.Type, name string) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return name
	}

	sf, ok := t.FieldByName(name)
	if !ok {
		return name
	}

	parts := make([]string, 0, len(sf.Index))
	cur := t
	for i, idx := range sf.Index {
		f := cur.Field(idx)
		tags, err := bsoncodec.DefaultStructTagParser.ParseStructTags(f)
		if err != nil || tags.Skip {
			return name
		}
		key, inline := tags.Name, tags.Inline
		if i == len(sf.Index)-1 {
			parts = append(parts, key)
			break
		}
		if !inline {
			parts = append(parts, key)
		}
		cur = f.Type
		for cur.Kind() == reflect.Pointer {
			cur = cur.Elem()
		}
	}
	return strings.Join(parts, ".")
}

// ElementOf resolves sel and maps the result through ElementName.
func ElementOf[T any](sel Selector[T]) (name, element string, err error) {
	name, err = Resolve(sel)
	if err != nil {
		return "", "", err
	}
	return name, ElementName(reflect.TypeFor[T](), name), nil
}

// HasField reports whether T declares or promotes an exported field called name.
func HasField[T any](name string) bool {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return false
	}
	sf, ok := t.FieldByName(name)
	return ok && sf.IsExported()
}
