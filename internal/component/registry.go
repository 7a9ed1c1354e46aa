package component

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Registry is the static, in-memory catalog of block definitions.
type Registry struct {
	defs  []Definition
	index map[string]int
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the catalog compiled into the binary. It panics if the
// embedded catalog is malformed, which can only happen at build time.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Parse(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("component: invalid embedded catalog: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Parse decodes a YAML catalog and validates it.
func Parse(raw []byte) (*Registry, error) {
	var defs []Definition
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(defs)
}

// New builds a registry from definitions, normalising default data to its
// JSON shape so it matches what is read back from storage.
func New(defs []Definition) (*Registry, error) {
	reg := &Registry{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		normalized, err := normalizeData(def.DefaultData)
		if err != nil {
			return nil, fmt.Errorf("normalize %s default data: %w", def.Type, err)
		}
		def.DefaultData = normalized
		if _, exists := reg.index[def.Type]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateType, def.Type)
		}
		reg.index[def.Type] = len(reg.defs)
		reg.defs = append(reg.defs, def)
	}
	if err := validateCatalog(reg.defs); err != nil {
		return nil, err
	}
	return reg, nil
}

// Lookup resolves a block type. Callers treat a miss as "unknown component".
func (r *Registry) Lookup(blockType string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	idx, ok := r.index[blockType]
	if !ok {
		return Definition{}, false
	}
	return r.defs[idx], true
}

// All returns every definition in catalog order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// ByCategory returns definitions belonging to category, in catalog order.
func (r *Registry) ByCategory(category string) []Definition {
	var out []Definition
	for _, def := range r.All() {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// DefaultData returns a deep copy of the type's default payload.
func (r *Registry) DefaultData(blockType string) (map[string]any, bool) {
	def, ok := r.Lookup(blockType)
	if !ok {
		return nil, false
	}
	return CloneMap(def.DefaultData), true
}

// Categories returns the distinct categories of defs in first-seen order.
func Categories(defs []Definition) []string {
	seen := make(map[string]struct{}, len(defs))
	out := make([]string, 0, len(defs))
	for _, def := range defs {
		if _, ok := seen[def.Category]; ok {
			continue
		}
		seen[def.Category] = struct{}{}
		out = append(out, def.Category)
	}
	return out
}

func normalizeData(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CloneMap deep-copies a JSON-shaped map.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep-copies a JSON-shaped value.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return typed
	}
}
