package editor

import (
	"errors"
	"fmt"

	"github.com/blockcms/internal/component"
)

var (
	ErrMinReached      = errors.New("array is at its minimum length")
	ErrIndexOutOfRange = errors.New("array index out of range")
	ErrNotArray        = errors.New("field is not an array")
	ErrNotEditable     = errors.New("path does not address an editable field")
)

// CanAdd reports whether another element may be appended to an array of
// length n. It is a UI policy; stored data may already exceed max.
func CanAdd(field component.Field, n int) bool {
	limit := field.MaxCount()
	return limit < 0 || n < limit
}

// CanRemove reports whether an element may be removed from an array of
// length n.
func CanRemove(field component.Field, n int) bool {
	if n == 0 {
		return false
	}
	floor := field.MinCount()
	return floor < 0 || n > floor
}

// Get reads the value at path. Missing or mistyped containers yield false.
func Get(data map[string]any, path Path) (any, bool) {
	var current any = data
	for _, seg := range path {
		if seg.IsIndex {
			list, ok := current.([]any)
			if !ok || seg.Index < 0 || seg.Index >= len(list) {
				return nil, false
			}
			current = list[seg.Index]
			continue
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, exists := m[seg.Key]
		if !exists {
			return nil, false
		}
		current = value
	}
	return current, true
}

// SetValue writes raw, coerced to the addressed field's type, and returns the
// updated document. data itself is not modified; every container along the
// path is copied and untouched siblings are carried over as they were.
func SetValue(def component.Definition, data map[string]any, path Path, raw any) (map[string]any, error) {
	last, ok := path.Last()
	if !ok || last.IsIndex {
		return nil, fmt.Errorf("%w: %s", ErrNotEditable, path)
	}
	field, err := FieldAt(def, path)
	if err != nil {
		return nil, err
	}
	return setPath(data, path, Coerce(field, raw))
}

// AddElement appends a zero-valued element to the array at path. When the
// array already holds max elements the document is returned unchanged and
// added is false.
func AddElement(def component.Definition, data map[string]any, path Path) (updated map[string]any, added bool, err error) {
	field, list, err := arrayAt(def, data, path)
	if err != nil {
		return nil, false, err
	}
	if !CanAdd(field, len(list)) {
		return data, false, nil
	}
	next := make([]any, len(list), len(list)+1)
	copy(next, list)
	next = append(next, NewElement(field.ArrayFields))
	updated, err = setPath(data, path, next)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// RemoveElement deletes the element at index. It refuses with ErrMinReached
// once the array is down to min elements.
func RemoveElement(def component.Definition, data map[string]any, path Path, index int) (map[string]any, error) {
	field, list, err := arrayAt(def, data, path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if !CanRemove(field, len(list)) {
		return nil, ErrMinReached
	}
	next := make([]any, 0, len(list)-1)
	next = append(next, list[:index]...)
	next = append(next, list[index+1:]...)
	return setPath(data, path, next)
}

// MoveElement relocates the element at from to position to.
func MoveElement(def component.Definition, data map[string]any, path Path, from, to int) (map[string]any, error) {
	_, list, err := arrayAt(def, data, path)
	if err != nil {
		return nil, err
	}
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return nil, fmt.Errorf("%w: %d -> %d", ErrIndexOutOfRange, from, to)
	}
	if from == to {
		return data, nil
	}
	next := make([]any, 0, len(list))
	moved := list[from]
	for i, item := range list {
		if i == from {
			continue
		}
		next = append(next, item)
	}
	next = append(next[:to], append([]any{moved}, next[to:]...)...)
	return setPath(data, path, next)
}

func arrayAt(def component.Definition, data map[string]any, path Path) (component.Field, []any, error) {
	if last, ok := path.Last(); !ok || last.IsIndex {
		return component.Field{}, nil, fmt.Errorf("%w: %s", ErrNotArray, path)
	}
	field, err := FieldAt(def, path)
	if err != nil {
		return component.Field{}, nil, err
	}
	if field.Type != component.FieldArray {
		return component.Field{}, nil, fmt.Errorf("%w: %s", ErrNotArray, path)
	}
	value, _ := Get(data, path)
	return field, asSlice(value), nil
}

func setPath(data map[string]any, path Path, value any) (map[string]any, error) {
	updated, err := setIn(data, path, value)
	if err != nil {
		return nil, err
	}
	return updated.(map[string]any), nil
}

func setIn(container any, path Path, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	seg, rest := path[0], path[1:]

	if seg.IsIndex {
		list := asSlice(container)
		if seg.Index < 0 || seg.Index >= len(list) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, seg.Index)
		}
		child, err := setIn(list[seg.Index], rest, value)
		if err != nil {
			return nil, err
		}
		next := make([]any, len(list))
		copy(next, list)
		next[seg.Index] = child
		return next, nil
	}

	m := asMap(container)
	child, err := setIn(m[seg.Key], rest, value)
	if err != nil {
		return nil, err
	}
	next := make(map[string]any, len(m)+1)
	for key, existing := range m {
		next[key] = existing
	}
	next[seg.Key] = child
	return next, nil
}
