package questionnaire

import (
	"bytes"
	"encoding/json"
)

// Fields keeps properties the model does not interpret, in input order, so
// they are copied through a conversion untouched.
type Fields struct {
	keys []string
	vals map[string]json.RawMessage
}

// Set stores raw under key, keeping the first-seen position of key.
func (f *Fields) Set(key string, raw json.RawMessage) {
	if f.vals == nil {
		f.vals = make(map[string]json.RawMessage)
	}
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = raw
}

// Get returns the raw JSON stored under key.
func (f Fields) Get(key string) (json.RawMessage, bool) {
	raw, ok := f.vals[key]
	return raw, ok
}

// Delete removes key.
func (f *Fields) Delete(key string) {
	if _, ok := f.vals[key]; !ok {
		return
	}
	delete(f.vals, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in input order.
func (f Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of stored properties.
func (f Fields) Len() int {
	return len(f.keys)
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	if len(f.keys) == 0 {
		return Fields{}
	}
	out := Fields{
		keys: append([]string(nil), f.keys...),
		vals: make(map[string]json.RawMessage, len(f.vals)),
	}
	for k, v := range f.vals {
		out.vals[k] = bytes.Clone(v)
	}
	return out
}
