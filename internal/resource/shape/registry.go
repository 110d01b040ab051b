package shape

import (
	"fmt"

	"github.com/5w1tchy/library-api/internal/resource"
)

// Registry maps representation names to their schemas. Read-only after NewRegistry.
type Registry struct {
	schemas map[string]Schema
}

func NewRegistry(schemas ...Schema) *Registry {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[resource.Fold(s.Name())] = s
	}
	return r
}

func (r *Registry) Lookup(typ string) (Schema, bool) {
	s, ok := r.schemas[resource.Fold(typ)]
	return s, ok
}

// Validate checks that every name in raw is an attribute of typ. It fails closed:
// one unknown name rejects the whole list.
func (r *Registry) Validate(typ, raw string) error {
	s, ok := r.Lookup(typ)
	if !ok {
		return fmt.Errorf("%w: %q", resource.ErrUnknownRepresentation, typ)
	}
	fields, err := ParseFields(raw)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if !s.Has(f) {
			return fmt.Errorf("%w: %q is not a field of %s", resource.ErrInvalidFields, f, s.Name())
		}
	}
	return nil
}

func (r *Registry) HasFields(typ, raw string) bool {
	return r.Validate(typ, raw) == nil
}

// For returns the typed representation registered under typ.
func For[T any](r *Registry, typ string) (*Representation[T], error) {
	s, ok := r.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", resource.ErrUnknownRepresentation, typ)
	}
	rep, ok := s.(*Representation[T])
	if !ok {
		return nil, fmt.Errorf("%w: %q is registered for another type", resource.ErrUnknownRepresentation, typ)
	}
	return rep, nil
}
