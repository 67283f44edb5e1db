package models

import (
	"fmt"
	"sort"
	"strings"
)

// Fields holds the free-form attributes of a document
type Fields map[string]interface{}

// reserved keys are owned by the store and never taken from client input
var reserved = map[string]bool{"_id": true, "id": true}

// ValidKey reports whether k can be stored as a top-level field name.
// Dots and a leading "$" would be read by MongoDB as paths or operators.
func ValidKey(k string) bool {
	return k != "" && !reserved[k] && !strings.Contains(k, ".") && !strings.HasPrefix(k, "$")
}

// Clean returns a copy of f without reserved, empty or unstorable keys.
// Keys are trimmed; when two keys trim to the same name the untrimmed one wins,
// then the first in sorted order.
func (f Fields) Clean() Fields {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(Fields, len(f))
	for _, k := range names {
		if ValidKey(k) {
			out[k] = f[k]
		}
	}
	for _, k := range names {
		name := strings.TrimSpace(k)
		if name == k || !ValidKey(name) {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = f[k]
		}
	}
	return out
}

// Copy returns a shallow copy of f
func (f Fields) Copy() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Field is one name/value pair, used for rendering
type Field struct {
	Name  string
	Value interface{}
}

// BlogItem is a blog document: a store-assigned ID plus whatever fields were posted
type BlogItem struct {
	ID     string
	Fields Fields
}

// Title returns the "title" field as text, if any
func (b BlogItem) Title() string {
	v, ok := b.Fields["title"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Entries returns fields sorted by name
func (b BlogItem) Entries() []Field {
	names := make([]string, 0, len(b.Fields))
	for k := range b.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]Field, 0, len(names))
	for _, k := range names {
		out = append(out, Field{Name: k, Value: b.Fields[k]})
	}
	return out
}
