package editor

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/blockcms/internal/component"
)

//go:embed templates/*.html
var formTemplates embed.FS

// OptionView is one <option> of a select field.
type OptionView struct {
	Label    string
	Value    string
	Selected bool
}

// FieldView is the render model of one field at one path.
type FieldView struct {
	Field     component.Field
	Pointer   string
	ID        string
	Value     string
	Checked   bool
	Options   []OptionView
	Children  []FieldView
	Elements  []ElementView
	CanAdd    bool
	Selecting bool
}

// ElementView is one element of an array field.
type ElementView struct {
	Index       int
	Pointer     string
	Fields      []FieldView
	CanRemove   bool
	CanMoveUp   bool
	CanMoveDown bool
}

// BlockForm is the render model of a whole block editor.
type BlockForm struct {
	DraftID    string
	Block      component.Block
	Definition component.Definition
	Fields     []FieldView
	Unknown    bool
}

// Form renders block edit forms from the embedded template set.
type Form struct {
	tmpl *template.Template
}

func NewForm() (*Form, error) {
	tmpl, err := template.New("form").Funcs(template.FuncMap{
		"itoa": strconv.Itoa,
	}).ParseFS(formTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse form templates: %w", err)
	}
	return &Form{tmpl: tmpl}, nil
}

// RenderBlock writes the edit form for block. A block whose type is unknown
// gets a read-only notice instead of inputs.
func (f *Form) RenderBlock(w io.Writer, draftID string, catalog Catalog, block component.Block, pending SelectionTarget) error {
	view := BlockForm{DraftID: draftID, Block: block}
	def, ok := catalog.Lookup(block.Type)
	if !ok {
		view.Unknown = true
	} else {
		view.Definition = def
		if pending.BlockID != block.ID {
			pending = SelectionTarget{}
		}
		view.Fields = BuildFields(def.Fields, block.Data, nil, block.ID, pending)
	}
	return f.tmpl.ExecuteTemplate(w, "block", view)
}

// BuildFields walks fields in declaration order, reading each value from
// data. Malformed values are shown as their type's empty value.
func BuildFields(fields []component.Field, data map[string]any, parent Path, blockID string, pending SelectionTarget) []FieldView {
	views := make([]FieldView, 0, len(fields))
	for _, field := range fields {
		path := parent.Child(Key(field.Key))
		views = append(views, buildField(field, data[field.Key], path, blockID, pending))
	}
	return views
}

func buildField(field component.Field, value any, path Path, blockID string, pending SelectionTarget) FieldView {
	view := FieldView{
		Field:   field,
		Pointer: path.Pointer(),
		ID:      path.ID(blockID),
	}
	switch field.Type {
	case component.FieldNumber:
		view.Value = strconv.FormatFloat(asNumber(value), 'f', -1, 64)
	case component.FieldBoolean:
		view.Checked = asBool(value)
	case component.FieldSelect:
		view.Value = asString(value)
		view.Options = make([]OptionView, 0, len(field.Options))
		for _, opt := range field.Options {
			view.Options = append(view.Options, OptionView{
				Label:    opt.Label,
				Value:    opt.Value,
				Selected: opt.Value == view.Value,
			})
		}
	case component.FieldObject:
		view.Children = BuildFields(field.ObjectFields, asMap(value), path, blockID, pending)
	case component.FieldArray:
		list := asSlice(value)
		view.CanAdd = CanAdd(field, len(list))
		removable := CanRemove(field, len(list))
		view.Elements = make([]ElementView, 0, len(list))
		for i, item := range list {
			elementPath := path.Child(Index(i))
			view.Elements = append(view.Elements, ElementView{
				Index:       i,
				Pointer:     elementPath.Pointer(),
				Fields:      BuildFields(field.ArrayFields, asMap(item), elementPath, blockID, pending),
				CanRemove:   removable,
				CanMoveUp:   i > 0,
				CanMoveDown: i < len(list)-1,
			})
		}
	default:
		view.Value = asString(value)
	}
	if pending.Pending() && pending.FieldPath().Equal(path) {
		view.Selecting = true
	}
	return view
}
