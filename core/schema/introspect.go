// Package schema provides introspection types for exposing resource metadata via REST API.
// These types let clients discover the resources and fields an API accepts.
package schema

// ResourceListResponse is returned by GET /_schema
type ResourceListResponse struct {
	Resources []ResourceSummary `json:"resources"`
	Variants  []VariantSummary  `json:"variants,omitempty"`
	Count     int               `json:"count"`
}

// ResourceSummary provides a brief overview of a resource.
type ResourceSummary struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Extends     string `json:"extends,omitempty"`
	Fields      int    `json:"fields"`
	Examples    int    `json:"examples"`
}

// VariantSummary describes a variant set.
type VariantSummary struct {
	Name          string            `json:"name"`
	Discriminator string            `json:"discriminator"`
	Mapping       map[string]string `json:"mapping"`
}

// ResourceSchemaResponse is returned by GET /_schema/{resource}
type ResourceSchemaResponse struct {
	Resource    string                    `json:"resource"`
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	Bases       []string                  `json:"bases,omitempty"`
	Strict      bool                      `json:"strict,omitempty"`
	Fields      []FieldSchema             `json:"fields"`
	Examples    map[string]map[string]any `json:"examples,omitempty"`
	// Schema is the JSON Schema fragment of the resource.
	Schema any `json:"schema,omitempty"`
}

// FieldSchema describes a resource field for introspection.
type FieldSchema struct {
	Name        string             `json:"name"`
	Key         string             `json:"key,omitempty"` // wire key when aliased
	Type        string             `json:"type"`
	Required    bool               `json:"required"`
	Nullable    bool               `json:"nullable"`
	Values      []string           `json:"values,omitempty"` // enum options
	Ref         string             `json:"ref,omitempty"`    // nested resource
	Default     any                `json:"default,omitempty"`
	DefaultFunc string             `json:"default_func,omitempty"`
	Inherited   string             `json:"inherited,omitempty"` // base resource
	Deprecated  bool               `json:"deprecated,omitempty"`
	Constraints []ConstraintSchema `json:"constraints,omitempty"`
	Description string             `json:"description,omitempty"`
}

// ConstraintSchema describes a field constraint for introspection.
type ConstraintSchema struct {
	Type    string `json:"type"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}
