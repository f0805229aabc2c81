// Package schema defines the core types for declarative resource definitions.
// A resource is a named, ordered set of fields with constraints and examples.
package schema

import (
	"fmt"
	"sort"
)

// Resource is the root definition of a request or response shape.
type Resource struct {
	// Name is the resource name (e.g., "Project", "Item"). Set from the
	// catalog key when parsed from YAML.
	Name string `yaml:"-"`

	// Title and Description are documentation only.
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`

	// Extends names a base resource. The derived field table is the base's
	// fields followed by this resource's own; a field of the same name
	// replaces the base field.
	Extends string `yaml:"extends,omitempty"`

	// Strict rejects keys that are not declared fields.
	Strict bool `yaml:"strict,omitempty"`

	// Fields defines the data fields in declaration order.
	Fields FieldList `yaml:"fields"`

	// Examples are named literal instances used for documentation.
	Examples ExampleSet `yaml:"examples,omitempty"`
}

// ExampleSet maps an example name to a literal instance of a resource.
// It is documentation and seed material, not a data store.
type ExampleSet map[string]map[string]any

// Names returns the example names in sorted order.
func (e ExampleSet) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of the named example so callers cannot mutate the
// shared declaration.
func (e ExampleSet) Get(name string) (map[string]any, bool) {
	ex, ok := e[name]
	if !ok {
		return nil, false
	}
	return copyMap(ex), true
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = copyMap(vv)
		case []any:
			cp := make([]any, len(vv))
			for i, item := range vv {
				if im, ok := item.(map[string]any); ok {
					cp[i] = copyMap(im)
				} else {
					cp[i] = item
				}
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// VariantSet selects one of several resources by the value of a
// discriminator field, read before validation.
type VariantSet struct {
	// Name of the variant set. Set from the catalog key.
	Name string `yaml:"-"`

	// Description for documentation.
	Description string `yaml:"description,omitempty"`

	// Discriminator is the field whose value picks the resource.
	Discriminator string `yaml:"discriminator"`

	// Mapping maps discriminator values to resource names.
	Mapping map[string]string `yaml:"mapping"`
}

// Tags returns the discriminator values in sorted order.
func (v VariantSet) Tags() []string {
	tags := make([]string, 0, len(v.Mapping))
	for tag := range v.Mapping {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Catalog is the set of resource and variant definitions of an API.
type Catalog struct {
	Resources map[string]Resource   `yaml:"resources"`
	Variants  map[string]VariantSet `yaml:"variants,omitempty"`
}

// Merge adds the definitions of other, failing on duplicate names.
func (c *Catalog) Merge(other Catalog) error {
	if c.Resources == nil {
		c.Resources = make(map[string]Resource)
	}
	if c.Variants == nil {
		c.Variants = make(map[string]VariantSet)
	}

	for name, res := range other.Resources {
		if _, dup := c.Resources[name]; dup {
			return fmt.Errorf("duplicate resource %q", name)
		}
		c.Resources[name] = res
	}
	for name, vs := range other.Variants {
		if _, dup := c.Variants[name]; dup {
			return fmt.Errorf("duplicate variant %q", name)
		}
		if _, clash := c.Resources[name]; clash {
			return fmt.Errorf("variant %q clashes with a resource of the same name", name)
		}
		c.Variants[name] = vs
	}
	return nil
}

// ResourceNames returns resource names in sorted order.
func (c Catalog) ResourceNames() []string {
	names := make([]string, 0, len(c.Resources))
	for name := range c.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
