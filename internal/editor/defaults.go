package editor

import (
	"github.com/blockcms/internal/component"
)

// ZeroValue is the empty value a freshly added field starts with.
func ZeroValue(field component.Field) any {
	switch field.Type {
	case component.FieldNumber:
		return float64(0)
	case component.FieldBoolean:
		return false
	case component.FieldArray:
		return []any{}
	case component.FieldObject:
		return NewElement(field.ObjectFields)
	default:
		return ""
	}
}

// NewElement builds one array element (or nested object) with exactly the
// keys declared in fields, each holding its zero value.
func NewElement(fields []component.Field) map[string]any {
	element := make(map[string]any, len(fields))
	for _, field := range fields {
		element[field.Key] = ZeroValue(field)
	}
	return element
}

var (
	asString = component.AsString
	asNumber = component.AsNumber
	asBool   = component.AsBool
	asSlice  = component.AsSlice
	asMap    = component.AsMap
)

// Coerce converts raw input (typically a form value) into the stored shape
// for field. Composite fields are passed through their tolerant accessor.
func Coerce(field component.Field, raw any) any {
	switch field.Type {
	case component.FieldNumber:
		return asNumber(raw)
	case component.FieldBoolean:
		return asBool(raw)
	case component.FieldArray:
		return component.CloneValue(asSlice(raw))
	case component.FieldObject:
		return component.CloneMap(asMap(raw))
	default:
		return asString(raw)
	}
}
