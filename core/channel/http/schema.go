package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/openapi"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/pkg/jsonapi"
)

// SchemaHandler serves resource introspection so clients can discover the
// resources and fields the API accepts at runtime.
type SchemaHandler struct {
	registry *convention.Registry
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(reg *convention.Registry) *SchemaHandler {
	return &SchemaHandler{registry: reg}
}

// Routes returns a router with all schema routes.
func (h *SchemaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listResources)
	r.Get("/{resource}", h.getResourceSchema)
	return r
}

// listResources handles GET /_schema
func (h *SchemaHandler) listResources(w http.ResponseWriter, r *http.Request) {
	var resp schema.ResourceListResponse

	for _, name := range h.registry.Names() {
		d, _ := h.registry.Resource(name)
		extends := ""
		if len(d.Bases) > 0 {
			extends = d.Bases[0]
		}
		resp.Resources = append(resp.Resources, schema.ResourceSummary{
			Name:        name,
			Title:       d.Title,
			Description: d.Description,
			Extends:     extends,
			Fields:      len(d.Fields),
			Examples:    len(d.Examples),
		})
	}
	for _, name := range h.registry.VariantNames() {
		vs, _ := h.registry.Variant(name)
		resp.Variants = append(resp.Variants, schema.VariantSummary{
			Name:          name,
			Discriminator: vs.Discriminator,
			Mapping:       vs.Mapping,
		})
	}
	resp.Count = len(resp.Resources)

	// Return as JSON:API meta response
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"resources": resp.Resources,
		"variants":  resp.Variants,
		"count":     resp.Count,
	})
}

// getResourceSchema handles GET /_schema/{resource}
func (h *SchemaHandler) getResourceSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource")

	d, ok := h.registry.Resource(name)
	if !ok {
		jsonapi.WriteError(w, jsonapi.ErrNotFoundWithID("resource", name))
		return
	}

	js, err := openapi.Describe(h.registry, name)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrFromError(err))
		return
	}

	resp := schema.ResourceSchemaResponse{
		Resource:    d.Name,
		Title:       d.Title,
		Description: d.Description,
		Bases:       d.Bases,
		Strict:      d.Strict,
		Fields:      buildFields(d.Fields),
		Examples:    d.Examples,
		Schema:      js,
	}

	// Schema is metadata, not a resource
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"resource":    resp.Resource,
		"title":       resp.Title,
		"description": resp.Description,
		"bases":       resp.Bases,
		"strict":      resp.Strict,
		"fields":      resp.Fields,
		"examples":    resp.Examples,
		"schema":      resp.Schema,
	})
}

func buildFields(fields []convention.DerivedField) []schema.FieldSchema {
	result := make([]schema.FieldSchema, 0, len(fields))
	for _, f := range fields {
		fs := schema.FieldSchema{
			Name:        f.Name,
			Type:        string(f.Type),
			Required:    f.Required,
			Nullable:    f.Nullable,
			Values:      f.Values,
			Ref:         f.Ref,
			Default:     f.Default,
			DefaultFunc: f.DefaultFunc,
			Inherited:   f.From,
			Deprecated:  f.Deprecated,
			Constraints: buildConstraints(f.Constraints),
			Description: f.Description,
		}
		if f.Key != f.Name {
			fs.Key = f.Key
		}
		result = append(result, fs)
	}
	return result
}

func buildConstraints(constraints []schema.Constraint) []schema.ConstraintSchema {
	if len(constraints) == 0 {
		return nil
	}

	result := make([]schema.ConstraintSchema, 0, len(constraints))
	for _, c := range constraints {
		message := c.Message
		if message == "" {
			message = constraintDescription(c)
		}
		result = append(result, schema.ConstraintSchema{
			Type:    string(c.Type),
			Value:   c.Value,
			Message: message,
		})
	}
	return result
}

// constraintDescription creates a human-readable description for a constraint.
func constraintDescription(c schema.Constraint) string {
	switch c.Type {
	case schema.ConstraintMin:
		return fmt.Sprintf("Value must be at least %v", c.Value)
	case schema.ConstraintMax:
		return fmt.Sprintf("Value must be at most %v", c.Value)
	case schema.ConstraintGt:
		return fmt.Sprintf("Value must be greater than %v", c.Value)
	case schema.ConstraintLt:
		return fmt.Sprintf("Value must be less than %v", c.Value)
	case schema.ConstraintMinLength:
		return fmt.Sprintf("Length must be at least %v", c.Value)
	case schema.ConstraintMaxLength:
		return fmt.Sprintf("Length must be at most %v", c.Value)
	case schema.ConstraintPattern:
		return fmt.Sprintf("Must match pattern: %v", c.Value)
	case schema.ConstraintNotEmpty:
		return "Must not be empty"
	case schema.ConstraintOneOf:
		return fmt.Sprintf("Must be one of: %v", c.Value)
	default:
		return ""
	}
}
