package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Field defines a data field in a resource's schema.
type Field struct {
	// Type is the field type. See FieldType constants.
	Type FieldType `yaml:"type"`

	// Ref names the resource used by object and objects fields.
	Ref string `yaml:"ref,omitempty"`

	// Required indicates this field must be present in the input.
	// Fields are optional unless explicitly marked as required.
	Required *bool `yaml:"required,omitempty"`

	// Nullable allows an explicit null. Defaults to true for optional
	// fields and false for required ones.
	Nullable *bool `yaml:"nullable,omitempty"`

	// Default value for this field when absent from the input.
	Default any `yaml:"default,omitempty"`

	// DefaultFunc names a default computed for every new instance.
	// The only supported function is "now" on timestamp fields.
	DefaultFunc string `yaml:"default_func,omitempty"`

	// Values lists valid values for enum type fields.
	Values []string `yaml:"values,omitempty"`

	// Alias is the wire key when it differs from the field name.
	Alias string `yaml:"alias,omitempty"`

	// Title and Description are documentation only.
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Deprecated marks the field as deprecated in generated docs.
	Deprecated bool `yaml:"deprecated,omitempty"`

	// Constraints defines validation rules for this field.
	Constraints []Constraint `yaml:"constraints,omitempty"`
}

// FieldType represents the type of a schema field.
type FieldType string

const (
	// Scalar types
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBool      FieldType = "bool"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeEnum      FieldType = "enum" // Requires Values

	// Collections
	FieldTypeStrings FieldType = "strings" // List of strings
	FieldTypeSet     FieldType = "set"     // Set of strings, duplicates dropped

	// Nested resources
	FieldTypeObject  FieldType = "object"  // Requires Ref
	FieldTypeObjects FieldType = "objects" // List of Ref

	// Free-form JSON value
	FieldTypeJSON FieldType = "json"
)

// DefaultFuncNow is the computed default that yields the current time.
const DefaultFuncNow = "now"

// IsRequired returns whether the field is required.
func (f Field) IsRequired() bool {
	if f.Required != nil {
		return *f.Required
	}
	return false
}

// IsNullable returns whether an explicit null is accepted.
func (f Field) IsNullable() bool {
	if f.Nullable != nil {
		return *f.Nullable
	}
	return !f.IsRequired()
}

// IsScalar reports whether values of this type are single, non-nested values.
func (t FieldType) IsScalar() bool {
	switch t {
	case FieldTypeString, FieldTypeInt, FieldTypeFloat, FieldTypeBool,
		FieldTypeTimestamp, FieldTypeEnum:
		return true
	default:
		return false
	}
}

// IsNested reports whether the type refers to another resource.
func (t FieldType) IsNested() bool {
	return t == FieldTypeObject || t == FieldTypeObjects
}

// IsList reports whether the type holds multiple values.
func (t FieldType) IsList() bool {
	return t == FieldTypeStrings || t == FieldTypeSet || t == FieldTypeObjects
}

// NamedField pairs a field definition with its name.
type NamedField struct {
	Name string
	Field
}

// FieldList is an ordered list of fields. In YAML it is written as a
// mapping; declaration order is kept.
type FieldList []NamedField

// UnmarshalYAML decodes a mapping node while keeping key order.
func (l *FieldList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}

	out := make(FieldList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		var f Field
		if err := valNode.Decode(&f); err != nil {
			return fmt.Errorf("field %q: %w", keyNode.Value, err)
		}
		out = append(out, NamedField{Name: keyNode.Value, Field: f})
	}

	*l = out
	return nil
}

// Get returns the field with the given name.
func (l FieldList) Get(name string) (Field, bool) {
	for _, f := range l {
		if f.Name == name {
			return f.Field, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (l FieldList) Names() []string {
	names := make([]string, len(l))
	for i, f := range l {
		names[i] = f.Name
	}
	return names
}

// Bool returns a pointer to b, for the optional boolean attributes.
func Bool(b bool) *bool {
	return &b
}
