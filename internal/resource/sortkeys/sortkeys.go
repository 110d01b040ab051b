// Package sortkeys maps client-facing orderBy keys onto backing-store fields.
//
// A registry is assembled once with a Builder and is read-only afterwards, so it can
// be shared by any number of concurrent requests.
package sortkeys

import (
	"fmt"
	"strings"

	"github.com/5w1tchy/library-api/internal/resource"
)

// Mapping points a client key at one backing field. Reversed flips the requested
// direction for this field only (e.g. "age" ascending is "date_of_birth" descending).
type Mapping struct {
	Field    string
	Reversed bool
}

// KeyMapping is a client key with its backing mappings, in registration order.
type KeyMapping struct {
	Key      string
	Mappings []Mapping
}

// Term is one store-level ordering term.
type Term struct {
	Field string
	Desc  bool
}

func (t Term) String() string {
	if t.Desc {
		return t.Field + " desc"
	}
	return t.Field + " asc"
}

type entry struct {
	keys  []KeyMapping
	index map[string]int
}

// Builder collects registrations. It is not safe for concurrent use.
type Builder struct {
	types map[string]*entry
}

func NewBuilder() *Builder {
	return &Builder{types: map[string]*entry{}}
}

// Register adds a backing field to key on typ. Registering the same key again fans it
// out to another field; fields apply in registration order.
func (b *Builder) Register(typ, key, field string, reversed bool) *Builder {
	t := resource.Fold(typ)
	e, ok := b.types[t]
	if !ok {
		e = &entry{index: map[string]int{}}
		b.types[t] = e
	}
	k := resource.Fold(key)
	i, ok := e.index[k]
	if !ok {
		i = len(e.keys)
		e.index[k] = i
		e.keys = append(e.keys, KeyMapping{Key: strings.TrimSpace(key)})
	}
	e.keys[i].Mappings = append(e.keys[i].Mappings, Mapping{Field: field, Reversed: reversed})
	return b
}

// Build freezes the registrations into a Registry. The builder may be discarded.
func (b *Builder) Build() *Registry {
	r := &Registry{types: make(map[string]*entry, len(b.types))}
	for t, e := range b.types {
		cp := &entry{keys: make([]KeyMapping, len(e.keys)), index: make(map[string]int, len(e.index))}
		for i, km := range e.keys {
			cp.keys[i] = KeyMapping{Key: km.Key, Mappings: append([]Mapping(nil), km.Mappings...)}
		}
		for k, i := range e.index {
			cp.index[k] = i
		}
		r.types[t] = cp
	}
	return r
}

// Registry is the immutable sort key table.
type Registry struct {
	types map[string]*entry
}

// GetMapping returns a copy of the key table for typ.
func (r *Registry) GetMapping(typ string) ([]KeyMapping, bool) {
	e, ok := r.types[resource.Fold(typ)]
	if !ok {
		return nil, false
	}
	out := make([]KeyMapping, len(e.keys))
	for i, km := range e.keys {
		out[i] = KeyMapping{Key: km.Key, Mappings: append([]Mapping(nil), km.Mappings...)}
	}
	return out, true
}

// ValidateOrderBy reports whether every clause of rawOrderBy names a registered key.
// Unknown types are never valid.
func (r *Registry) ValidateOrderBy(typ, rawOrderBy string) bool {
	return r.Check(typ, rawOrderBy) == nil
}

// Check is ValidateOrderBy with the reason: ErrUnknownRepresentation for an
// unregistered type, ErrInvalidSort for an unknown key or malformed clause.
func (r *Registry) Check(typ, rawOrderBy string) error {
	_, err := r.resolve(typ, rawOrderBy)
	return err
}

// Translate turns rawOrderBy into store terms. Each clause contributes one term per
// backing field; later terms break ties of earlier ones.
func (r *Registry) Translate(typ, rawOrderBy string) ([]Term, error) {
	clauses, err := r.resolve(typ, rawOrderBy)
	if err != nil {
		return nil, err
	}
	var terms []Term
	for _, c := range clauses {
		for _, m := range c.mappings {
			terms = append(terms, Term{Field: m.Field, Desc: c.desc != m.Reversed})
		}
	}
	return terms, nil
}

type clause struct {
	mappings []Mapping
	desc     bool
}

func (r *Registry) resolve(typ, rawOrderBy string) ([]clause, error) {
	e, ok := r.types[resource.Fold(typ)]
	if !ok || len(e.keys) == 0 {
		return nil, fmt.Errorf("%w: no sort keys for %q", resource.ErrUnknownRepresentation, typ)
	}
	if strings.TrimSpace(rawOrderBy) == "" {
		return nil, nil
	}

	parts := strings.Split(rawOrderBy, ",")
	out := make([]clause, 0, len(parts))
	for _, p := range parts {
		key, desc, err := parseClause(p)
		if err != nil {
			return nil, err
		}
		i, ok := e.index[resource.Fold(key)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown sort key %q", resource.ErrInvalidSort, key)
		}
		out = append(out, clause{mappings: e.keys[i].Mappings, desc: desc})
	}
	return out, nil
}

// parseClause accepts "key", "key asc" and "key desc" (case-insensitive).
func parseClause(raw string) (key string, desc bool, err error) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 1:
		return fields[0], false, nil
	case 2:
		switch resource.Fold(fields[1]) {
		case "asc":
			return fields[0], false, nil
		case "desc":
			return fields[0], true, nil
		}
	}
	return "", false, fmt.Errorf("%w: malformed clause %q", resource.ErrInvalidSort, strings.TrimSpace(raw))
}
