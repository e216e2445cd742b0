// Package field resolves typed field selectors into the field names that the
// builders hand to the document store.
//
// Go has no lambda-body inspection, so a selector is a small sealed variant:
//
//	field.Name[Customer]("Name")                                 // member, by declared name
//	field.Ref[Customer](func(c *Customer) any { return &c.Name }) // member, by address
//	field.Convert(field.Name[Customer]("Age"))                    // conversion of a member
//	field.Method[Customer]((*Customer).Label)                     // method reference
//
// Selectors are resolved on every call; nothing is cached.
package field

// Kind tags the shape of a Selector.
type Kind int

const (
	// KindMember is a direct reference to one field of the document type.
	KindMember Kind = iota + 1
	// KindConvert wraps a member reference in one level of conversion.
	KindConvert
	// KindMethod references a method of the document type.
	KindMethod
)

// String returns a readable kind name.
func (k Kind) String() string {
	switch k {
	case KindMember:
		return "member"
	case KindConvert:
		return "convert"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Selector identifies one property of the document type T.
// The set of implementations is closed; use the constructors in this package.
type Selector[T any] interface {
	Kind() Kind
	sealed(*T)
}

type member[T any] struct {
	name   string
	access func(*T) any
}

func (member[T]) Kind() Kind { return KindMember }
func (member[T]) sealed(*T)  {}

type conversion[T any] struct {
	inner Selector[T]
}

func (conversion[T]) Kind() Kind { return KindConvert }
func (conversion[T]) sealed(*T)  {}

type method[T any] struct {
	fn any
}

func (method[T]) Kind() Kind { return KindMethod }
func (method[T]) sealed(*T)  {}

// Name references the field of T with the given declared Go name.
// Promoted fields of embedded structs are accepted; dotted chains are not.
func Name[T any](name string) Selector[T] {
	return member[T]{name: name}
}

// Ref references the field whose address the accessor returns, e.g.
// func(c *Customer) any { return &c.Name }. The accessor is called on a zero
// T whose embedded struct pointers are allocated, and must not have side
// effects.
func Ref[T any](access func(*T) any) Selector[T] {
	return member[T]{access: access}
}

// Convert wraps a member selector in a single conversion. Resolution unwraps
// exactly one level.
func Convert[T any](inner Selector[T]) Selector[T] {
	return conversion[T]{inner: inner}
}

// Method references a method of T through a method expression such as
// (*Customer).Label or Customer.Label.
func Method[T any](fn any) Selector[T] {
	return method[T]{fn: fn}
}
