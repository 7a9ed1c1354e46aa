package component

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Issue is one advisory finding about a block's data.
type Issue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	location := strings.TrimSpace(i.Location)
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("%s: %s", location, i.Message)
}

// JSONSchema projects a definition onto a draft 2020-12 JSON Schema. Unknown
// keys stay allowed so stored data that predates a field removal still lints.
func JSONSchema(def Definition) map[string]any {
	return objectSchema(def.Fields)
}

func objectSchema(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]string, 0)
	for _, field := range fields {
		properties[field.Key] = fieldSchema(field)
		if field.Required {
			required = append(required, field.Key)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func fieldSchema(field Field) map[string]any {
	switch field.Type {
	case FieldNumber:
		schema := map[string]any{"type": "number"}
		if field.Min != nil {
			schema["minimum"] = *field.Min
		}
		if field.Max != nil {
			schema["maximum"] = *field.Max
		}
		return schema
	case FieldBoolean:
		return map[string]any{"type": "boolean"}
	case FieldSelect:
		values := make([]any, 0, len(field.Options)+1)
		values = append(values, "")
		for _, option := range field.Options {
			values = append(values, option.Value)
		}
		return map[string]any{"type": "string", "enum": values}
	case FieldArray:
		schema := map[string]any{
			"type":  "array",
			"items": objectSchema(field.ArrayFields),
		}
		if field.Min != nil {
			schema["minItems"] = int(*field.Min)
		}
		if field.Max != nil {
			schema["maxItems"] = int(*field.Max)
		}
		return schema
	case FieldObject:
		return objectSchema(field.ObjectFields)
	default:
		schema := map[string]any{"type": "string"}
		if field.Required {
			schema["minLength"] = 1
		}
		return schema
	}
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*jsonschema.Schema{}
)

func compiledSchema(def Definition) (*jsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	encoded, err := json.Marshal(JSONSchema(def))
	if err != nil {
		return nil, err
	}
	cacheKey := def.Type + "\x00" + string(encoded)
	if schema, ok := compiled[cacheKey]; ok {
		return schema, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	resource := def.Type + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, err
	}
	compiled[cacheKey] = schema
	return schema, nil
}

// Lint checks data against the definition's schema and returns the issues
// found, ordered by location. It never blocks a save.
func Lint(def Definition, data map[string]any) ([]Issue, error) {
	schema, err := compiledSchema(def)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", def.Type, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	// The validator expects values produced by encoding/json.
	normalized, err := normalizeData(data)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(normalized); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return collectIssues(validationErr), nil
		}
		return nil, err
	}
	return nil, nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Location < issues[j].Location
	})
	return issues
}
