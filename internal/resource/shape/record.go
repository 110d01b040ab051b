package shape

import (
	"bytes"
	"encoding/json"

	"github.com/5w1tchy/library-api/internal/resource"
)

// Entry is one visible attribute of a Record.
type Entry struct {
	Name  string
	Value any

	key string // folded Name
}

// Record is a shaped view of a single value: an ordered name -> value mapping.
// The identity value is retained even when the client did not ask for it, so that
// links can still be built for partially shaped items.
type Record struct {
	entries     []Entry
	identity    any
	hasIdentity bool
}

// Append adds a visible entry at the end of the record.
func (r *Record) Append(name string, value any) {
	r.entries = append(r.entries, Entry{Name: name, Value: value, key: resource.Fold(name)})
}

// Get returns the value of a visible entry (case-insensitive).
func (r Record) Get(name string) (any, bool) {
	key := resource.Fold(name)
	for _, e := range r.entries {
		if e.key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func (r Record) Len() int { return len(r.entries) }

func (r Record) Keys() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

func (r Record) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Identity returns the identity attribute captured at projection time.
func (r Record) Identity() (any, bool) {
	return r.identity, r.hasIdentity
}

// MarshalJSON writes the entries as a JSON object, preserving entry order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
