// Package shape validates client field lists and projects typed values into
// ordered, partial records.
package shape

import (
	"fmt"
	"strings"

	"github.com/5w1tchy/library-api/internal/resource"
)

// FieldSet is the ordered, de-duplicated list of attribute names a client asked for.
// An empty set selects every attribute.
type FieldSet []string

// ParseFields splits a raw "a, b,c" list. Whitespace-only input yields an empty set.
// Duplicates (compared case-insensitively) keep their first position.
func ParseFields(raw string) (FieldSet, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make(FieldSet, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			return nil, fmt.Errorf("%w: empty field name in %q", resource.ErrInvalidFields, raw)
		}
		key := resource.Fold(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func (f FieldSet) Empty() bool { return len(f) == 0 }

// String renders the set back into its query-string form.
func (f FieldSet) String() string { return strings.Join(f, ",") }
