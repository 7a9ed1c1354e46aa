package editor

import (
	"errors"
	"fmt"

	"github.com/blockcms/internal/component"
)

// ErrNoSelectionTarget is returned when media is chosen with nothing pending.
var ErrNoSelectionTarget = errors.New("no media selection pending")

// TargetKind tags a SelectionTarget.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetField
	TargetArrayElement
)

func (k TargetKind) String() string {
	switch k {
	case TargetField:
		return "field"
	case TargetArrayElement:
		return "array_element"
	default:
		return "none"
	}
}

// ParseTargetKind is the inverse of TargetKind.String.
func ParseTargetKind(raw string) (TargetKind, error) {
	switch raw {
	case "", "none":
		return TargetNone, nil
	case "field":
		return TargetField, nil
	case "array_element":
		return TargetArrayElement, nil
	default:
		return TargetNone, fmt.Errorf("unknown selection target kind %q", raw)
	}
}

// SelectionTarget records where a media-library pick should be written.
// For TargetField, Path addresses the image field itself. For
// TargetArrayElement, Path addresses the array and Index/FieldKey name the
// element's image field.
type SelectionTarget struct {
	Kind     TargetKind
	BlockID  string
	Path     Path
	Index    int
	FieldKey string
}

// FieldTarget targets a basic image field.
func FieldTarget(blockID string, path Path) SelectionTarget {
	return SelectionTarget{Kind: TargetField, BlockID: blockID, Path: path}
}

// ArrayElementTarget targets fieldKey of the element at index.
func ArrayElementTarget(blockID string, arrayPath Path, index int, fieldKey string) SelectionTarget {
	return SelectionTarget{
		Kind:     TargetArrayElement,
		BlockID:  blockID,
		Path:     arrayPath,
		Index:    index,
		FieldKey: fieldKey,
	}
}

// Pending reports whether the target points anywhere.
func (t SelectionTarget) Pending() bool {
	return t.Kind != TargetNone
}

// FieldPath returns the full path of the value the selection replaces.
func (t SelectionTarget) FieldPath() Path {
	switch t.Kind {
	case TargetField:
		return t.Path
	case TargetArrayElement:
		return t.Path.Child(Index(t.Index)).Child(Key(t.FieldKey))
	default:
		return nil
	}
}

// ApplySelection writes url into the targeted image field.
func ApplySelection(def component.Definition, data map[string]any, target SelectionTarget, url string) (map[string]any, error) {
	if !target.Pending() {
		return nil, ErrNoSelectionTarget
	}
	path := target.FieldPath()
	field, err := FieldAt(def, path)
	if err != nil {
		return nil, err
	}
	if field.Type != component.FieldImage && field.Type != component.FieldURL {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotEditable, path, field.Type)
	}
	return SetValue(def, data, path, url)
}
