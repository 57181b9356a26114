package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Rendered is a record with every value rendered as text, in a stable field
// order: identity, attributes, then any extra columns sorted by name.
type Rendered struct {
	keys   []string
	values map[string]string
}

// Render applies the render-all-as-string policy to a stored document. The
// surrogate key is never included.
func Render(doc Document) Rendered {
	r := Rendered{values: make(map[string]string, len(doc))}
	for _, f := range Fields() {
		if v, ok := doc[f]; ok {
			r.keys = append(r.keys, f)
			r.values[f] = RenderValue(v)
		}
	}
	var extra []string
	for k := range doc {
		if k == SurrogateKeyField || IsField(k) {
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		r.keys = append(r.keys, k)
		r.values[k] = RenderValue(doc[k])
	}
	return r
}

// Get returns the rendered value of field.
func (r Rendered) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Keys returns the rendered field names in output order.
func (r Rendered) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Map returns the rendered values keyed by field name.
func (r Rendered) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes a JSON object keeping the field order.
func (r Rendered) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object of strings. Key order follows Render's rules.
func (r *Rendered) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	doc := make(Document, len(m))
	for k, v := range m {
		doc[k] = v
	}
	*r = Render(doc)
	return nil
}

// RenderValue renders a scalar stored value as text.
func RenderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// Whole numbers (bulk-loaded numeric columns, JSON round trips) render
		// without a fractional part.
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return RenderValue(float64(t))
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "True"
		}
		return "False"
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
