// Package convention derives the runtime form of resource definitions.
// It applies composition (extends), required/nullable conventions, wire
// keys, and compiles constraints once so validation never re-parses them.
package convention

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/contractgate/core/schema"
)

// ErrUnknownResource is returned when a definition references a resource
// that is not in the catalog.
var ErrUnknownResource = errors.New("unknown resource")

// ErrExtendsCycle is returned when extends chains loop.
var ErrExtendsCycle = errors.New("extends cycle")

// Derived contains all derived information from a resource definition.
// This is the fully-expanded form used by validation and documentation.
type Derived struct {
	// Source is the original resource definition.
	Source schema.Resource

	// Name of the resource.
	Name string

	// Title and Description for documentation.
	Title       string
	Description string

	// Bases is the extends chain, nearest base first.
	Bases []string

	// Fields contains base fields followed by the resource's own fields.
	Fields []DerivedField

	// Strict rejects unknown keys.
	Strict bool

	// Examples declared on the resource.
	Examples schema.ExampleSet

	index map[string]int
	keys  map[string]int
}

// DerivedField is a fully-derived field with all defaults applied.
type DerivedField struct {
	// Name of the field.
	Name string

	// Key is the wire key (the alias, or the name).
	Key string

	// Type is the field type.
	Type schema.FieldType

	// Ref names the nested resource for object and objects fields.
	Ref string

	// Required indicates this field must be provided.
	Required bool

	// Nullable indicates an explicit null is accepted.
	Nullable bool

	// Default value, as declared.
	Default any

	// DefaultFunc is a computed default evaluated per instance.
	DefaultFunc string

	// Values for enum fields.
	Values []string

	// Constraints are compiled validation rules for this field.
	Constraints []schema.Constraint

	// Documentation.
	Title       string
	Description string
	Deprecated  bool

	// From names the base resource the field was inherited from, or "".
	From string
}

// HasDefault reports whether the field has a static or computed default.
func (f DerivedField) HasDefault() bool {
	return f.Default != nil || f.DefaultFunc != ""
}

// Field returns the derived field with the given name.
func (d Derived) Field(name string) (DerivedField, bool) {
	i, ok := d.index[name]
	if !ok {
		return DerivedField{}, false
	}
	return d.Fields[i], true
}

// FieldByKey returns the derived field with the given wire key.
func (d Derived) FieldByKey(key string) (DerivedField, bool) {
	i, ok := d.keys[key]
	if !ok {
		return DerivedField{}, false
	}
	return d.Fields[i], true
}

// Slots returns the instance slots for this resource.
func (d Derived) Slots() []schema.Slot {
	slots := make([]schema.Slot, len(d.Fields))
	for i, f := range d.Fields {
		slots[i] = schema.Slot{Name: f.Name, Key: f.Key}
	}
	return slots
}

// Required returns the wire keys of required fields in order.
func (d Derived) Required() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Key)
		}
	}
	return out
}

// Registry holds the derived resources and variant sets of a catalog.
// It is built once at startup and read-only afterwards.
type Registry struct {
	resources map[string]Derived
	variants  map[string]schema.VariantSet
}

// Resource returns a derived resource by name.
func (r *Registry) Resource(name string) (Derived, bool) {
	d, ok := r.resources[name]
	return d, ok
}

// Variant returns a variant set by name.
func (r *Registry) Variant(name string) (schema.VariantSet, bool) {
	v, ok := r.variants[name]
	return v, ok
}

// Names returns resource names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariantNames returns variant set names in sorted order.
func (r *Registry) VariantNames() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeriveCatalog derives every resource of a catalog and checks
// cross-resource references.
func DeriveCatalog(cat schema.Catalog) (*Registry, error) {
	reg := &Registry{
		resources: make(map[string]Derived, len(cat.Resources)),
		variants:  make(map[string]schema.VariantSet, len(cat.Variants)),
	}

	var errs []string
	for _, name := range cat.ResourceNames() {
		d, err := Derive(cat.Resources[name], cat)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		reg.resources[name] = d
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("derive catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}

	// Nested references
	for _, name := range reg.Names() {
		for _, f := range reg.resources[name].Fields {
			if !f.Type.IsNested() {
				continue
			}
			if _, ok := reg.resources[f.Ref]; !ok {
				errs = append(errs, fmt.Sprintf("resource %q field %q: %v %q", name, f.Name, ErrUnknownResource, f.Ref))
			}
		}
	}

	for name, vs := range cat.Variants {
		for _, tag := range vs.Tags() {
			target := vs.Mapping[tag]
			d, ok := reg.resources[target]
			if !ok {
				errs = append(errs, fmt.Sprintf("variant %q tag %q: %v %q", name, tag, ErrUnknownResource, target))
				continue
			}
			df, ok := d.FieldByKey(vs.Discriminator)
			if !ok {
				errs = append(errs, fmt.Sprintf("variant %q: resource %q has no discriminator field %q", name, target, vs.Discriminator))
				continue
			}
			if df.Type != schema.FieldTypeString && df.Type != schema.FieldTypeEnum {
				errs = append(errs, fmt.Sprintf("variant %q: discriminator %q of %q must be a string or enum", name, vs.Discriminator, target))
			}
		}
		reg.variants[name] = vs
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("derive catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return reg, nil
}

// Derive expands one resource definition, following its extends chain
// within the catalog.
func Derive(res schema.Resource, cat schema.Catalog) (Derived, error) {
	chain, err := extendsChain(res, cat)
	if err != nil {
		return Derived{}, err
	}

	d := Derived{
		Source:      res,
		Name:        res.Name,
		Title:       res.Title,
		Description: res.Description,
		Strict:      res.Strict,
		Examples:    res.Examples,
		index:       make(map[string]int),
		keys:        make(map[string]int),
	}

	// Base fields first, outermost base at the front.
	for i := len(chain) - 1; i >= 0; i-- {
		base := chain[i]
		d.Bases = append([]string{base.Name}, d.Bases...)
		if base.Strict {
			d.Strict = true
		}
		if err := d.addFields(base.Name, base.Fields); err != nil {
			return Derived{}, fmt.Errorf("resource %q: %w", res.Name, err)
		}
	}
	if err := d.addFields("", res.Fields); err != nil {
		return Derived{}, fmt.Errorf("resource %q: %w", res.Name, err)
	}

	return d, nil
}

// addFields appends fields, replacing same-named fields in place.
func (d *Derived) addFields(from string, fields schema.FieldList) error {
	for _, nf := range fields {
		df, err := DeriveField(nf.Name, nf.Field)
		if err != nil {
			return err
		}
		df.From = from

		if i, ok := d.index[nf.Name]; ok {
			delete(d.keys, d.Fields[i].Key)
			d.Fields[i] = df
		} else {
			d.index[nf.Name] = len(d.Fields)
			d.Fields = append(d.Fields, df)
		}

		if j, clash := d.keys[df.Key]; clash && d.Fields[j].Name != df.Name {
			return fmt.Errorf("field %q: key %q already used by %q", df.Name, df.Key, d.Fields[j].Name)
		}
		d.keys[df.Key] = d.index[nf.Name]
	}
	return nil
}

// extendsChain returns the bases of res, nearest first.
func extendsChain(res schema.Resource, cat schema.Catalog) ([]schema.Resource, error) {
	var chain []schema.Resource
	seen := map[string]bool{res.Name: true}

	next := res.Extends
	for next != "" {
		if seen[next] {
			return nil, fmt.Errorf("resource %q: %w through %q", res.Name, ErrExtendsCycle, next)
		}
		seen[next] = true

		base, ok := cat.Resources[next]
		if !ok {
			return nil, fmt.Errorf("resource %q extends %w %q", res.Name, ErrUnknownResource, next)
		}
		if base.Name == "" {
			base.Name = next
		}
		chain = append(chain, base)
		next = base.Extends
	}
	return chain, nil
}

// DeriveField derives a single field definition. It is also used for
// scalar request parameters, which are validated as pseudo-fields.
func DeriveField(name string, f schema.Field) (DerivedField, error) {
	if err := schema.ValidateField(name, f); err != nil {
		return DerivedField{}, err
	}

	constraints := make([]schema.Constraint, 0, len(f.Constraints))
	for _, c := range f.Constraints {
		compiled, err := c.Compile()
		if err != nil {
			return DerivedField{}, fmt.Errorf("field %q: %w", name, err)
		}
		constraints = append(constraints, compiled)
	}

	key := f.Alias
	if key == "" {
		key = name
	}

	return DerivedField{
		Name:        name,
		Key:         key,
		Type:        f.Type,
		Ref:         f.Ref,
		Required:    f.IsRequired(),
		Nullable:    f.IsNullable(),
		Default:     f.Default,
		DefaultFunc: f.DefaultFunc,
		Values:      f.Values,
		Constraints: constraints,
		Title:       f.Title,
		Description: f.Description,
		Deprecated:  f.Deprecated,
	}, nil
}
