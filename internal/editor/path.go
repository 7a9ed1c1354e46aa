package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blockcms/internal/component"
)

var (
	ErrInvalidPath  = errors.New("invalid field path")
	ErrUnknownField = errors.New("unknown field")
)

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a key segment.
func Key(key string) Segment {
	return Segment{Key: key}
}

// Index returns an array index segment.
func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path addresses a value inside a block's data.
type Path []Segment

// Child returns a new path extended by seg. The receiver is never aliased.
func (p Path) Child(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	out := make(Path, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// Equal reports whether two paths address the same value.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Pointer renders the path as an RFC 6901 JSON pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(escapePointerToken(seg.String()))
	}
	return b.String()
}

func (p Path) String() string {
	return p.Pointer()
}

// ID renders a DOM-safe identifier unique for every distinct path under the
// same root. Keys are hex-escaped outside [A-Za-z0-9] so different paths
// never collide.
func (p Path) ID(root string) string {
	var b strings.Builder
	b.WriteString("f")
	if root != "" {
		b.WriteByte('-')
		writeIDToken(&b, root)
	}
	for _, seg := range p {
		if seg.IsIndex {
			b.WriteString("-i")
			b.WriteString(strconv.Itoa(seg.Index))
			continue
		}
		b.WriteString("-k")
		writeIDToken(&b, seg.Key)
	}
	return b.String()
}

func writeIDToken(b *strings.Builder, token string) {
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			fmt.Fprintf(b, "_%x_", r)
		}
	}
}

func escapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

func unescapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// ParsePointer resolves a JSON pointer against the definition's fields. A
// token directly below an array field must be a non-negative index; every
// other token must name a declared field.
func ParsePointer(def component.Definition, pointer string) (Path, error) {
	if pointer == "" {
		return nil, fmt.Errorf("%w: empty pointer", ErrInvalidPath)
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPath, pointer)
	}

	tokens := strings.Split(pointer[1:], "/")
	path := make(Path, 0, len(tokens))
	fields := def.Fields
	var current *component.Field

	for _, raw := range tokens {
		token := unescapePointerToken(raw)
		if current != nil && current.Type == component.FieldArray {
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: %q is not an array index", ErrInvalidPath, token)
			}
			path = append(path, Index(idx))
			fields = current.ArrayFields
			current = nil
			continue
		}

		field, ok := findField(fields, token)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, token)
		}
		path = append(path, Key(token))
		f := field
		current = &f
		switch field.Type {
		case component.FieldObject:
			fields = field.ObjectFields
		case component.FieldArray:
			// the next token is an index
		default:
			fields = nil
		}
	}
	return path, nil
}

// FieldAt returns the descriptor addressing path's final key. A path ending
// in an index resolves to the enclosing array field.
func FieldAt(def component.Definition, path Path) (component.Field, error) {
	if len(path) == 0 {
		return component.Field{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	fields := def.Fields
	var current component.Field
	var have, afterIndex bool
	for _, seg := range path {
		if seg.IsIndex {
			if !have || afterIndex || current.Type != component.FieldArray {
				return component.Field{}, fmt.Errorf("%w: index %d outside an array", ErrInvalidPath, seg.Index)
			}
			fields = current.ArrayFields
			afterIndex = true
			continue
		}
		afterIndex = false
		field, ok := findField(fields, seg.Key)
		if !ok {
			return component.Field{}, fmt.Errorf("%w: %q", ErrUnknownField, seg.Key)
		}
		current, have = field, true
		fields = field.ObjectFields
	}
	return current, nil
}

func findField(fields []component.Field, key string) (component.Field, bool) {
	for _, field := range fields {
		if field.Key == key {
			return field, true
		}
	}
	return component.Field{}, false
}
