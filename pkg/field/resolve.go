package field

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// UnsupportedExpressionMessage is the fixed diagnostic carried by ErrUnsupportedExpression.
const UnsupportedExpressionMessage = "expression body must be a member access, a conversion of one, or a method call"

var (
	// ErrInvalidInput classifies absent selectors and other caller input that cannot be used.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedExpression classifies selectors of an unsupported shape.
	ErrUnsupportedExpression = errors.New(UnsupportedExpressionMessage)
)

func invalidInput(message string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, message)
}

func unsupported(detail string) error {
	if detail == "" {
		return ErrUnsupportedExpression
	}
	return fmt.Errorf("%w (%s)", ErrUnsupportedExpression, detail)
}

// Resolve returns the declared name of the property identified by sel.
func Resolve[T any](sel Selector[T]) (string, error) {
	if sel == nil {
		return "", invalidInput("selector is nil")
	}

	switch s := sel.(type) {
	case member[T]:
		return s.resolve()
	case conversion[T]:
		if s.inner == nil {
			return "", invalidInput("converted selector is nil")
		}
		inner, ok := s.inner.(member[T])
		if !ok {
			return "", unsupported("conversion operand is a " + s.inner.Kind().String())
		}
		return inner.resolve()
	case method[T]:
		return s.resolve()
	default:
		return "", unsupported("")
	}
}

// MustResolve is like Resolve but panics on error. Use it for package-level selectors.
func MustResolve[T any](sel Selector[T]) string {
	name, err := Resolve(sel)
	if err != nil {
		panic(err)
	}
	return name
}

func (m member[T]) resolve() (string, error) {
	if m.access == nil && m.name == "" {
		return "", invalidInput("member selector is empty")
	}

	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return "", unsupported(t.String() + " is not a struct")
	}

	if m.access == nil {
		sf, ok := t.FieldByName(m.name)
		if !ok || !sf.IsExported() {
			return "", unsupported(fmt.Sprintf("%s has no exported field %q", t, m.name))
		}
		return sf.Name, nil
	}

	return m.resolveAddress(t)
}

func (m member[T]) resolveAddress(t reflect.Type) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			name, err = "", unsupported(fmt.Sprintf("accessor panicked: %v", r))
		}
	}()

	doc := new(T)
	embeds := allocateEmbeds(reflect.ValueOf(doc).Elem(), map[reflect.Type]bool{t: true})
	out := m.access(doc)
	if out == nil {
		return "", unsupported("accessor returned nil")
	}

	pv := reflect.ValueOf(out)
	if pv.Kind() != reflect.Pointer || pv.IsNil() {
		return "", unsupported("accessor must return the address of a field")
	}

	ft := pv.Type().Elem()
	addr := pv.Pointer()
	regions := append([]region{{base: reflect.ValueOf(doc).Pointer(), t: t}}, embeds...)
	for _, r := range regions {
		if addr < r.base || addr >= r.base+r.t.Size() {
			continue
		}
		found, ok := fieldAt(r.t, addr-r.base, ft)
		if sf, promoted := t.FieldByName(found); ok && promoted && sf.Type == ft {
			return found, nil
		}
		return "", unsupported("accessor does not address a single-level field")
	}
	return "", unsupported("accessor returned an address outside the document")
}

// region is one allocated struct reachable from the zero document.
type region struct {
	base uintptr
	t    reflect.Type
}

// allocateEmbeds fills nil embedded struct pointers of v, recursively, and
// returns the memory each allocation occupies. Types already on the path are
// skipped so self-embedding types terminate.
func allocateEmbeds(v reflect.Value, path map[reflect.Type]bool) []region {
	var out []region
	for i := 0; i < v.NumField(); i++ {
		sf := v.Type().Field(i)
		if !sf.Anonymous {
			continue
		}
		f := v.Field(i)
		switch {
		case sf.Type.Kind() == reflect.Struct:
			out = append(out, allocateEmbeds(f, path)...)
		case sf.Type.Kind() == reflect.Pointer && sf.Type.Elem().Kind() == reflect.Struct:
			et := sf.Type.Elem()
			if path[et] || !f.CanSet() || !f.IsNil() {
				continue
			}
			p := reflect.New(et)
			f.Set(p)
			out = append(out, region{base: p.Pointer(), t: et})
			path[et] = true
			out = append(out, allocateEmbeds(p.Elem(), path)...)
			delete(path, et)
		}
	}
	return out
}

// fieldAt finds the exported field at offset with type ft, descending into
// embedded structs so promoted fields resolve like direct ones.
func fieldAt(t reflect.Type, offset uintptr, ft reflect.Type) (string, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Offset == offset && sf.Type == ft {
			return sf.Name, sf.IsExported()
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct &&
			offset >= sf.Offset && offset < sf.Offset+sf.Type.Size() {
			if name, ok := fieldAt(sf.Type, offset-sf.Offset, ft); ok {
				return name, true
			}
		}
	}
	return "", false
}

func (m method[T]) resolve() (string, error) {
	if m.fn == nil {
		return "", invalidInput("method selector is nil")
	}

	fv := reflect.ValueOf(m.fn)
	if fv.Kind() != reflect.Func {
		return "", unsupported(fmt.Sprintf("%T is not a method", m.fn))
	}
	if fv.IsNil() {
		return "", invalidInput("method selector is nil")
	}

	fn := runtime.FuncForPC(fv.Pointer())
	if fn == nil {
		return "", unsupported("method symbol not found")
	}
	symbol := strings.TrimSuffix(fn.Name(), "-fm")
	receiver, name := symbol, symbol
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		receiver, name = symbol[:i], symbol[i+1:]
	}

	t := reflect.TypeFor[T]()
	if !hasReceiver(receiver, t) {
		return "", unsupported(fmt.Sprintf("%s is not a method of %s", symbol, t))
	}
	if _, ok := reflect.PointerTo(t).MethodByName(name); !ok {
		return "", unsupported(fmt.Sprintf("%s has no method %q", t, name))
	}
	return name, nil
}

// hasReceiver reports whether the symbol prefix names t or *t as receiver,
// as in "pkg.Customer" or "pkg.(*Customer)".
func hasReceiver(prefix string, t reflect.Type) bool {
	tname := t.Name()
	if tname == "" {
		return false
	}
	if i := strings.IndexByte(tname, '['); i >= 0 {
		tname = tname[:i] + "[...]"
	}
	return strings.HasSuffix(prefix, ".(*"+tname+")") || strings.HasSuffix(prefix, "."+tname)
}
