package jinjago

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// FromJSON decodes a JSON document into a Value, the inverse of the tojson
// filter (builtins_filters.go). It is the seam a host program uses to turn a
// request body, a config file, or a stored fixture into a render context
// without hand-building *ValueMap literals.
func FromJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return jsonToValue(raw), nil
}

func jsonToValue(raw interface{}) *Value {
	switch v := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		f, _ := v.Float64()
		return Float(f)
	case string:
		return String(v)
	case []interface{}:
		out := make([]*Value, len(v))
		for i, e := range v {
			out[i] = jsonToValue(e)
		}
		return NewArray(out)
	case map[string]interface{}:
		// go-json (like encoding/json) decodes an object into a plain Go
		// map, whose range order is randomized by the runtime - not the
		// source document's byte order. Acceptable for render contexts,
		// where top-level key order rarely has an observable effect; a
		// caller that needs exact source order should decode with the
		// Decoder's token stream instead of this convenience path.
		m := NewValueMap()
		for k, e := range v {
			m.Set(k, jsonToValue(e))
		}
		return NewMap(m)
	}
	return Undefined()
}
