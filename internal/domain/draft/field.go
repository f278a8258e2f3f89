package draft

import (
	"bytes"
	"encoding/json"
)

// Field is an optional patch value. Set is true when the key was present in the
// patch, including an explicit null, which lets "clear" differ from "leave as is".
type Field[T any] struct {
	Set   bool
	Value T
}

// Value builds a set Field.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// UnmarshalJSON implements json.Unmarshaler. It only runs when the key is present.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Value = zero
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}
