package shape

import (
	"fmt"
	"iter"
	"slices"

	"github.com/5w1tchy/library-api/internal/resource"
)

// Attr is a named accessor on T.
type Attr[T any] struct {
	Name string
	Get  func(T) any
}

// Schema is the type-erased view of a Representation used for validation.
type Schema interface {
	Name() string
	Names() []string
	Has(name string) bool
}

// Representation is the accessor table for one client-facing type, built once at
// start-up. Attribute order is the declared order.
type Representation[T any] struct {
	name     string
	attrs    []Attr[T]
	keys     []string // folded attribute names
	index    map[string]int
	identity int
}

// NewRepresentation builds the accessor table. identity names the attribute used for
// link construction ("" when the type has none). It panics on duplicate names or an
// unknown identity, both of which are wiring mistakes.
func NewRepresentation[T any](name, identity string, attrs ...Attr[T]) *Representation[T] {
	r := &Representation[T]{
		name:     name,
		attrs:    attrs,
		keys:     make([]string, len(attrs)),
		index:    make(map[string]int, len(attrs)),
		identity: -1,
	}
	for i, a := range attrs {
		key := resource.Fold(a.Name)
		if _, dup := r.index[key]; dup {
			panic(fmt.Sprintf("shape: duplicate attribute %q on %s", a.Name, name))
		}
		r.keys[i] = key
		r.index[key] = i
	}
	if identity != "" {
		i, ok := r.index[resource.Fold(identity)]
		if !ok {
			panic(fmt.Sprintf("shape: identity %q is not an attribute of %s", identity, name))
		}
		r.identity = i
	}
	return r
}

func (r *Representation[T]) Name() string { return r.name }

func (r *Representation[T]) Names() []string {
	out := make([]string, len(r.attrs))
	for i, a := range r.attrs {
		out[i] = a.Name
	}
	return out
}

func (r *Representation[T]) Has(name string) bool {
	_, ok := r.index[resource.Fold(name)]
	return ok
}

// Project shapes every element of src. Accessors are resolved once, before the
// returned sequence is consumed; the sequence is restartable iff src is.
func (r *Representation[T]) Project(src iter.Seq[T], fields FieldSet) (iter.Seq[Record], error) {
	attrs, err := r.resolve(fields)
	if err != nil {
		return nil, err
	}
	return func(yield func(Record) bool) {
		for item := range src {
			if !yield(r.shape(item, attrs)) {
				return
			}
		}
	}, nil
}

// ProjectAll is Project over a slice, collected.
func (r *Representation[T]) ProjectAll(items []T, fields FieldSet) ([]Record, error) {
	seq, err := r.Project(slices.Values(items), fields)
	if err != nil {
		return nil, err
	}
	out := slices.Collect(seq)
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

// ProjectOne shapes a single value.
func (r *Representation[T]) ProjectOne(item T, fields FieldSet) (Record, error) {
	attrs, err := r.resolve(fields)
	if err != nil {
		return Record{}, err
	}
	return r.shape(item, attrs), nil
}

// resolve returns attribute indexes in the requested order.
func (r *Representation[T]) resolve(fields FieldSet) ([]int, error) {
	if fields.Empty() {
		all := make([]int, len(r.attrs))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		i, ok := r.index[resource.Fold(f)]
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", resource.ErrAttributeMissing, f, r.name)
		}
		out = append(out, i)
	}
	return out, nil
}

func (r *Representation[T]) shape(item T, attrs []int) Record {
	rec := Record{entries: make([]Entry, 0, len(attrs))}
	for _, i := range attrs {
		a := r.attrs[i]
		rec.entries = append(rec.entries, Entry{Name: a.Name, Value: a.Get(item), key: r.keys[i]})
	}
	if r.identity >= 0 {
		rec.identity = r.attrs[r.identity].Get(item)
		rec.hasIdentity = true
	}
	return rec
}
