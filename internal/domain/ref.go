package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RefKind tags the shape an identifier arrived in.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefRaw
	RefObject
)

// maxRefDepth bounds unwrapping of nested reference objects.
const maxRefDepth = 8

// Ref is an identifier that may arrive as a plain string or as a populated
// reference object such as {"_id": "...", "name": "..."}.
type Ref struct {
	Kind   RefKind
	Raw    string
	Object map[string]any
}

// RawRef builds a plain string reference.
func RawRef(id string) Ref {
	return Ref{Kind: RefRaw, Raw: id}
}

// ObjectRef builds a populated reference.
func ObjectRef(obj map[string]any) Ref {
	if obj == nil {
		return Ref{}
	}
	return Ref{Kind: RefObject, Object: obj}
}

// IsZero reports whether the reference is absent.
func (r Ref) IsZero() bool {
	return r.Kind == RefNone
}

// Populated reports whether the reference carries an expanded object.
func (r Ref) Populated() bool {
	return r.Kind == RefObject
}

// ID returns the canonical identifier, or "" when the reference cannot be normalized.
func (r Ref) ID() string {
	id, _ := NormalizeRef(r)
	return id
}

// Field returns a string member of a populated reference.
func (r Ref) Field(name string) string {
	if r.Kind != RefObject {
		return ""
	}
	s, _ := r.Object[name].(string)
	return strings.TrimSpace(s)
}

// NormalizeRef unwraps a reference to its canonical string identifier.
func NormalizeRef(r Ref) (string, bool) {
	switch r.Kind {
	case RefRaw:
		id := strings.TrimSpace(r.Raw)
		return id, id != ""
	case RefObject:
		return normalizeValue(r.Object, 0)
	default:
		return "", false
	}
}

func normalizeValue(v any, depth int) (string, bool) {
	if depth > maxRefDepth {
		return "", false
	}
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		id := strings.TrimSpace(val)
		return id, id != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), val.String() != ""
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case map[string]any:
		for _, key := range []string{"id", "_id"} {
			if nested, ok := val[key]; ok {
				if id, ok := normalizeValue(nested, depth+1); ok {
					return id, true
				}
			}
		}
		// a wrapper like {"$oid": "..."} exposes its id as its only scalar member
		if len(val) == 1 {
			for _, nested := range val {
				return normalizeValue(nested, depth+1)
			}
		}
		return "", false
	default:
		return "", false
	}
}

// UnmarshalJSON accepts a string, a number, an object or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawRef(s)
		return nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = ObjectRef(obj)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			// unsupported shapes degrade to an absent reference
			*r = Ref{}
			return nil
		}
		*r = RawRef(n.String())
		return nil
	}
}

// MarshalJSON writes the populated object or the raw identifier.
func (r Ref) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RefRaw:
		return json.Marshal(r.Raw)
	case RefObject:
		return json.Marshal(r.Object)
	default:
		return []byte("null"), nil
	}
}
