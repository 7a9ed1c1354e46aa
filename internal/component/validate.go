package component

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrDuplicateType  = errors.New("duplicate component type")
	ErrInvalidCatalog = errors.New("invalid component catalog")
)

var (
	typeKeyPattern  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	fieldKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

func validateCatalog(defs []Definition) error {
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, def.Type, err)
		}
	}
	return nil
}

// Validate checks the definition's own consistency.
func (d Definition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Type, validation.Required, validation.Match(typeKeyPattern)),
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Category, validation.Required),
		validation.Field(&d.Fields, validation.Required, validation.By(uniqueFieldKeys)),
		validation.Field(&d.DefaultData, validation.By(func(any) error {
			return declaredKeys(d.DefaultData, d.Fields)
		})),
	)
}

// Validate checks a single descriptor and, through ozzo's slice handling,
// every nested descriptor below it.
func (f Field) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Key, validation.Required, validation.Match(fieldKeyPattern)),
		validation.Field(&f.Label, validation.Required),
		validation.Field(&f.Type, validation.Required, validation.By(func(any) error {
			if !f.Type.Valid() {
				return fmt.Errorf("unknown field type %q", f.Type)
			}
			return nil
		})),
		validation.Field(&f.Options, validation.When(f.Type == FieldSelect, validation.Required)),
		validation.Field(&f.ArrayFields,
			validation.When(f.Type == FieldArray, validation.Required),
			validation.By(uniqueFieldKeys),
		),
		validation.Field(&f.ObjectFields,
			validation.When(f.Type == FieldObject, validation.Required),
			validation.By(uniqueFieldKeys),
		),
		validation.Field(&f.Max, validation.By(func(any) error {
			if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
				return errors.New("must not be less than min")
			}
			return nil
		})),
	)
}

func uniqueFieldKeys(value any) error {
	fields, _ := value.([]Field)
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if _, ok := seen[field.Key]; ok {
			return fmt.Errorf("duplicate field key %q", field.Key)
		}
		seen[field.Key] = struct{}{}
	}
	return nil
}

func declaredKeys(data map[string]any, fields []Field) error {
	var undeclared []string
	for key := range data {
		if _, ok := findField(fields, key); !ok {
			undeclared = append(undeclared, key)
		}
	}
	if len(undeclared) == 0 {
		return nil
	}
	sort.Strings(undeclared)
	return fmt.Errorf("keys not declared in fields: %v", undeclared)
}
