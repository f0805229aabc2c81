package app

import (
	"fmt"

	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/core/validation"
)

// Seed is the read-only data the handlers serve. It is built once at
// startup and never written; handlers clone before they modify.
type Seed struct {
	// Items is the plain item list served by the listing and index routes.
	Items []map[string]any

	// Catalog holds items by key with only some fields set, so the
	// response shaping modes have something to drop.
	Catalog map[string]*schema.Instance

	// Projects are the project examples, in listing order.
	Projects []*schema.Instance
}

var seedItems = []string{"Foo", "Bar", "Baz"}

var seedCatalog = map[string]map[string]any{
	"foo": {"name": "Foo", "price": 50.2},
	"bar": {"name": "Bar", "description": "The bartenders", "price": 62, "tax": 20.2},
	"baz": {"name": "Baz", "description": nil, "price": 50.2, "tax": 10.5, "tags": []any{}},
}

// NewSeed validates the seed data against the registry.
func NewSeed(v *validation.Validator) (*Seed, error) {
	s := &Seed{
		Catalog: make(map[string]*schema.Instance, len(seedCatalog)),
	}

	for _, name := range seedItems {
		s.Items = append(s.Items, map[string]any{"item_name": name})
	}

	for key, raw := range seedCatalog {
		inst, result := v.Validate("Item", raw)
		if !result.Valid {
			return nil, fmt.Errorf("seed item %q: %w", key, result)
		}
		s.Catalog[key] = inst
	}

	d, ok := v.Registry().Resource("Project")
	if !ok {
		return nil, fmt.Errorf("seed: no Project resource")
	}
	for _, name := range []string{"example", "example2"} {
		raw, ok := d.Examples.Get(name)
		if !ok {
			return nil, fmt.Errorf("seed: no Project example %q", name)
		}
		inst, result := v.ValidateDerived(d, raw)
		if !result.Valid {
			return nil, fmt.Errorf("seed project %q: %w", name, result)
		}
		s.Projects = append(s.Projects, inst)
	}

	return s, nil
}

// Project returns a copy of the project template with the given id.
func (s *Seed) Project(id int64) *schema.Instance {
	p := s.Projects[len(s.Projects)-1].Clone()
	_ = p.Set("id", id)
	return p
}

// ProjectList returns copies of the listed projects: the first example as
// is, the second under id 123.
func (s *Seed) ProjectList() []*schema.Instance {
	return []*schema.Instance{s.Projects[0].Clone(), s.Project(123)}
}
