package model

import "encoding/json"

// Patch is an optional field of a partial update. It distinguishes an absent
// field (Set false) from an explicit null (Set and Null) and from a value.
type Patch[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Set returns a patch that writes v.
func Set[T any](v T) Patch[T] {
	return Patch[T]{Value: v, Set: true}
}

// Null returns a patch that clears the column.
func Null[T any]() Patch[T] {
	return Patch[T]{Set: true, Null: true}
}

// Arg returns the value to bind for the column: nil for an explicit null.
func (p Patch[T]) Arg() any {
	if p.Null {
		return nil
	}
	return p.Value
}

// UnmarshalJSON marks the patch as set. A JSON null clears the column.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Set = true
	if string(data) == "null" {
		p.Null = true
		var zero T
		p.Value = zero
		return nil
	}
	p.Null = false
	return json.Unmarshal(data, &p.Value)
}

// MarshalJSON writes null for an unset or cleared patch.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if !p.Set || p.Null {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}
