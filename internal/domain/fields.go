package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Fields is an ordered string-keyed mapping. Keys iterate in insertion order
// and survive a JSON round trip in the order they were written, so descriptor
// metadata is published the way its author laid it out.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields returns an empty Fields.
func NewFields() Fields {
	return Fields{values: make(map[string]any)}
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (f *Fields) Set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (f Fields) GetString(key string) (string, bool) {
	v, ok := f.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (f *Fields) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f Fields) Len() int {
	return len(f.keys)
}

// Clone returns a shallow copy that can be mutated independently.
func (f Fields) Clone() Fields {
	out := Fields{
		keys:   make([]string, len(f.keys)),
		values: make(map[string]any, len(f.values)),
	}
	copy(out.keys, f.keys)
	for k, v := range f.values {
		out.values[k] = v
	}
	return out
}

// Merge copies every key of other into f, in other's order.
func (f *Fields) Merge(other Fields) {
	for _, k := range other.keys {
		f.Set(k, other.values[k])
	}
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := f.writeMembers(&buf, false); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeMembers writes "key":value pairs without the surrounding braces.
// When leadingComma is set a comma precedes the first member.
func (f Fields) writeMembers(buf *bytes.Buffer, leadingComma bool) error {
	for i, k := range f.keys {
		if i > 0 || leadingComma {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalNoEscape(f.values[k])
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	return nil
}

// UnmarshalJSON decodes a JSON object keeping its member order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*f = out
	return nil
}

// DecodeFields parses a JSON document whose top level must be an object.
func DecodeFields(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := decodeObject(dec)
	if err != nil {
		return Fields{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Fields{}, fmt.Errorf("unexpected data after top-level object")
	}
	return out, nil
}

func decodeObject(dec *json.Decoder) (Fields, error) {
	tok, err := dec.Token()
	if err != nil {
		return Fields{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Fields{}, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	out := NewFields()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Fields{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Fields{}, fmt.Errorf("expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return Fields{}, fmt.Errorf("value of %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return Fields{}, err
	}
	return out, nil
}

// marshalNoEscape encodes v without HTML escaping so URLs and markup in
// descriptors are written verbatim.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
