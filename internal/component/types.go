package component

// FieldType enumerates the editable property kinds a block can declare.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldSelect   FieldType = "select"
	FieldColor    FieldType = "color"
	FieldURL      FieldType = "url"
	FieldImage    FieldType = "image"
	FieldArray    FieldType = "array"
	FieldObject   FieldType = "object"
)

var fieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldNumber, FieldBoolean, FieldSelect,
	FieldColor, FieldURL, FieldImage, FieldArray, FieldObject,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, candidate := range fieldTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// Composite reports whether the field nests other field descriptors.
func (t FieldType) Composite() bool {
	return t == FieldArray || t == FieldObject
}

// TextLike reports whether values of this type are stored as plain strings.
func (t FieldType) TextLike() bool {
	switch t {
	case FieldText, FieldTextarea, FieldURL, FieldSelect, FieldColor, FieldImage:
		return true
	default:
		return false
	}
}

// Option is one choice of a select field.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Field describes one editable property of a block.
type Field struct {
	Key          string    `yaml:"key" json:"key"`
	Label        string    `yaml:"label" json:"label"`
	Type         FieldType `yaml:"type" json:"type"`
	Description  string    `yaml:"description,omitempty" json:"description,omitempty"`
	Placeholder  string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Required     bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Options      []Option  `yaml:"options,omitempty" json:"options,omitempty"`
	Min          *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max          *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	ArrayFields  []Field   `yaml:"arrayFields,omitempty" json:"arrayFields,omitempty"`
	ObjectFields []Field   `yaml:"objectFields,omitempty" json:"objectFields,omitempty"`
}

// Children returns the nested schema that applies to this field's type.
func (f Field) Children() []Field {
	switch f.Type {
	case FieldArray:
		return f.ArrayFields
	case FieldObject:
		return f.ObjectFields
	default:
		return nil
	}
}

// Child finds a nested descriptor by key.
func (f Field) Child(key string) (Field, bool) {
	return findField(f.Children(), key)
}

// MinCount returns the array cardinality floor, or -1 when unset.
func (f Field) MinCount() int {
	if f.Min == nil {
		return -1
	}
	return int(*f.Min)
}

// MaxCount returns the array cardinality ceiling, or -1 when unset.
func (f Field) MaxCount() int {
	if f.Max == nil {
		return -1
	}
	return int(*f.Max)
}

// Definition is a catalog entry describing one kind of visual section.
type Definition struct {
	Type        string         `yaml:"type" json:"type"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Category    string         `yaml:"category" json:"category"`
	Icon        string         `yaml:"icon" json:"icon"`
	DefaultData map[string]any `yaml:"defaultData" json:"defaultData"`
	Fields      []Field        `yaml:"fields" json:"fields"`
}

// Field finds a top level descriptor by key.
func (d Definition) Field(key string) (Field, bool) {
	return findField(d.Fields, key)
}

func findField(fields []Field, key string) (Field, bool) {
	for _, field := range fields {
		if field.Key == key {
			return field, true
		}
	}
	return Field{}, false
}

// Block is one persisted instance of a component type.
type Block struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}
