package openapi

import (
	"fmt"
	"math"

	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/schema"
)

// Reference prefixes for nested resources.
const (
	DefsPrefix       = "#/$defs/"
	ComponentsPrefix = "#/components/schemas/"
)

// Describe returns the standalone JSON Schema of a resource. Nested
// resources it references, directly or transitively, are included
// under $defs.
func Describe(reg *convention.Registry, name string) (*Schema, error) {
	d, ok := reg.Resource(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", convention.ErrUnknownResource, name)
	}

	root := ResourceSchema(d, DefsPrefix)
	root.Schema = JSONSchemaDialect

	defs := make(map[string]*Schema)
	if err := collectDefs(reg, d, defs); err != nil {
		return nil, err
	}
	if len(defs) > 0 {
		root.Defs = defs
	}
	return root, nil
}

func collectDefs(reg *convention.Registry, d convention.Derived, defs map[string]*Schema) error {
	for _, f := range d.Fields {
		if f.Ref == "" {
			continue
		}
		if _, done := defs[f.Ref]; done {
			continue
		}
		nested, ok := reg.Resource(f.Ref)
		if !ok {
			return fmt.Errorf("%w: %s", convention.ErrUnknownResource, f.Ref)
		}
		defs[f.Ref] = ResourceSchema(nested, DefsPrefix)
		if err := collectDefs(reg, nested, defs); err != nil {
			return err
		}
	}
	return nil
}

// ResourceSchema builds the object schema of a derived resource.
// Nested resources are referenced as refPrefix + name.
func ResourceSchema(d convention.Derived, refPrefix string) *Schema {
	s := &Schema{
		Type:        Type("object"),
		Title:       d.Title,
		Description: d.Description,
		Properties:  NewProperties(),
		Required:    d.Required(),
	}
	if s.Title == "" {
		s.Title = d.Name
	}
	if d.Strict {
		closed := false
		s.AdditionalProperties = &closed
	}

	for _, f := range d.Fields {
		s.Properties.Set(f.Key, FieldSchema(f, refPrefix))
	}

	for _, name := range d.Examples.Names() {
		ex, _ := d.Examples.Get(name)
		s.Examples = append(s.Examples, ex)
	}
	return s
}

// VariantSchema builds a oneOf schema selecting a resource by the
// discriminator property.
func VariantSchema(vs schema.VariantSet, refPrefix string) *Schema {
	s := &Schema{
		Description: vs.Description,
		Discriminator: &Discriminator{
			PropertyName: vs.Discriminator,
			Mapping:      make(map[string]string, len(vs.Mapping)),
		},
	}
	seen := make(map[string]bool)
	for _, tag := range vs.Tags() {
		target := vs.Mapping[tag]
		s.Discriminator.Mapping[tag] = refPrefix + target
		if seen[target] {
			continue
		}
		seen[target] = true
		s.OneOf = append(s.OneOf, &Schema{Ref: refPrefix + target})
	}
	return s
}

// FieldSchema converts a derived field to its JSON Schema.
func FieldSchema(f convention.DerivedField, refPrefix string) *Schema {
	s := &Schema{}

	switch f.Type {
	case schema.FieldTypeString:
		s.Type = Type("string")
	case schema.FieldTypeInt:
		s.Type = Type("integer")
	case schema.FieldTypeFloat:
		s.Type = Type("number")
	case schema.FieldTypeBool:
		s.Type = Type("boolean")
	case schema.FieldTypeTimestamp:
		s.Type = Type("string")
		s.Format = "date-time"
	case schema.FieldTypeEnum:
		s.Type = Type("string")
		for _, v := range f.Values {
			s.Enum = append(s.Enum, v)
		}
	case schema.FieldTypeStrings:
		s.Type = Type("array")
		s.Items = &Schema{Type: Type("string")}
	case schema.FieldTypeSet:
		s.Type = Type("array")
		s.Items = &Schema{Type: Type("string")}
		s.UniqueItems = true
	case schema.FieldTypeObject:
		s.Ref = refPrefix + f.Ref
	case schema.FieldTypeObjects:
		s.Type = Type("array")
		s.Items = &Schema{Ref: refPrefix + f.Ref}
	case schema.FieldTypeJSON:
		// Any JSON value.
	}

	list := f.Type.IsList()
	for _, c := range f.Constraints {
		applyConstraint(s, c, list)
	}

	if f.Default != nil {
		s.Default = f.Default
	}

	if f.Nullable && f.Type != schema.FieldTypeJSON {
		s = nullable(s)
	}

	s.Title = f.Title
	s.Description = f.Description
	s.Deprecated = f.Deprecated
	return s
}

// nullable widens a schema to also accept null.
func nullable(s *Schema) *Schema {
	if s.Ref != "" {
		return &Schema{
			AnyOf:   []*Schema{{Ref: s.Ref}, {Type: Type("null")}},
			Default: s.Default,
		}
	}
	s.Type = append(s.Type, "null")
	if len(s.Enum) > 0 {
		s.Enum = append(s.Enum, nil)
	}
	return s
}

func applyConstraint(s *Schema, c schema.Constraint, list bool) {
	switch c.Type {
	case schema.ConstraintMin:
		s.Minimum = bound(c.Value)
	case schema.ConstraintMax:
		s.Maximum = bound(c.Value)
	case schema.ConstraintGt:
		s.ExclusiveMinimum = bound(c.Value)
	case schema.ConstraintLt:
		s.ExclusiveMaximum = bound(c.Value)
	case schema.ConstraintMinLength:
		if list {
			s.MinItems = length(c.Value)
		} else {
			s.MinLength = length(c.Value)
		}
	case schema.ConstraintMaxLength:
		if list {
			s.MaxItems = length(c.Value)
		} else {
			s.MaxLength = length(c.Value)
		}
	case schema.ConstraintPattern:
		if p, ok := c.Value.(string); ok {
			s.Pattern = p
		}
	case schema.ConstraintNotEmpty:
		one := 1
		if list {
			if s.MinItems == nil {
				s.MinItems = &one
			}
		} else if s.MinLength == nil {
			s.MinLength = &one
		}
	case schema.ConstraintOneOf:
		if values, ok := c.Value.([]any); ok {
			s.Enum = append([]any(nil), values...)
		} else if values, ok := c.Value.([]string); ok {
			s.Enum = nil
			for _, v := range values {
				s.Enum = append(s.Enum, v)
			}
		}
	}
}

func bound(v any) *float64 {
	f, err := schema.ToFloat64(v)
	if err != nil {
		return nil
	}
	return &f
}

func length(v any) *int {
	f, err := schema.ToFloat64(v)
	if err != nil || f < 0 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
