// Package document defines the opaque content value that upgrade steps read and rewrite.
package document

// Document is an author-controlled mapping of field names to values. Values are the
// shapes produced by encoding/json: nested maps, slices, strings, numbers and booleans.
type Document map[string]interface{}

// Clone returns a deep copy of the document. Maps and slices are copied recursively so
// the copy shares no mutable state with the original. A nil document clones to nil.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneMap(d)
}

// Map returns the nested map stored under key, if the value has a map shape.
func (d Document) Map(key string) (Document, bool) {
	switch v := d[key].(type) {
	case map[string]interface{}:
		return Document(v), true
	case Document:
		return v, true
	default:
		return nil, false
	}
}

// String returns the string stored under key, if the value is a string.
func (d Document) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

// Has reports whether key is present, regardless of its value.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// CloneValue deep-copies a single document value.
func CloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return map[string]interface{}(cloneMap(t))
	case Document:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]interface{}) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}
