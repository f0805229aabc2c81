package openapi

import (
	"fmt"
	"sync"

	"github.com/swaggo/swag"
)

// Doc is a generated document published in the swag registry, where the
// Swagger UI and swag.ReadDoc find it.
type Doc struct {
	mu   sync.RWMutex
	json string
}

// ReadDoc implements swag.Swagger.
func (d *Doc) ReadDoc() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.json
}

// Update replaces the published document.
func (d *Doc) Update(spec *Spec) error {
	data, err := spec.ToJSON()
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.json = string(data)
	d.mu.Unlock()
	return nil
}

// swag.Register panics on a duplicate name.
var registerMu sync.Mutex

// Register publishes spec under name. A name this package registered
// before is updated in place.
func Register(name string, spec *Spec) (*Doc, error) {
	registerMu.Lock()
	defer registerMu.Unlock()

	switch existing := swag.GetSwagger(name).(type) {
	case nil:
	case *Doc:
		return existing, existing.Update(spec)
	default:
		return nil, fmt.Errorf("swag instance %q is registered by another package", name)
	}

	d := &Doc{}
	if err := d.Update(spec); err != nil {
		return nil, err
	}
	swag.Register(name, d)
	return d, nil
}

// ReadDoc returns the document published under name.
func ReadDoc(name string) (string, error) {
	return swag.ReadDoc(name)
}
