package openapi

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/artpar/contractgate/core/binding"
	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/route"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/pkg/jsonapi"
)

// ErrorDocumentSchema is the component name of the error response body.
const ErrorDocumentSchema = "ErrorDocument"

// Generator generates OpenAPI documents from a route table.
type Generator struct {
	registry *convention.Registry
	routes   []route.Route
	info     Info
	servers  []Server
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(registry *convention.Registry, routes []route.Route) *Generator {
	return &Generator{
		registry: registry,
		routes:   routes,
		info: Info{
			Title:   "contractgate",
			Version: "0.1.0",
		},
	}
}

// SetInfo sets the API info.
func (g *Generator) SetInfo(info Info) {
	if info.Title != "" {
		g.info.Title = info.Title
	}
	if info.Version != "" {
		g.info.Version = info.Version
	}
	g.info.Description = info.Description
}

// AddServer adds a server URL.
func (g *Generator) AddServer(url, description string) {
	g.servers = append(g.servers, Server{
		URL:         url,
		Description: description,
	})
}

// Generate creates the OpenAPI document. It fails when a route's
// parameters cannot be resolved.
func (g *Generator) Generate() (*Spec, error) {
	spec := &Spec{
		OpenAPI: Version,
		Info:    g.info,
		Servers: g.servers,
		Paths:   make(map[string]PathItem),
		Components: Components{
			Schemas: make(map[string]*Schema),
		},
	}

	for _, name := range g.registry.Names() {
		d, _ := g.registry.Resource(name)
		spec.Components.Schemas[name] = ResourceSchema(d, ComponentsPrefix)
	}
	for _, name := range g.registry.VariantNames() {
		vs, _ := g.registry.Variant(name)
		spec.Components.Schemas[name] = VariantSchema(vs, ComponentsPrefix)
	}
	spec.Components.Schemas[ErrorDocumentSchema] = errorDocumentSchema()

	tags := make(map[string]bool)
	for _, r := range g.routes {
		if err := g.generateRoutePath(spec, r); err != nil {
			return nil, err
		}
		for _, t := range r.Tags {
			tags[t] = true
		}
	}

	names := make([]string, 0, len(tags))
	for t := range tags {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		spec.Tags = append(spec.Tags, Tag{Name: t})
	}

	return spec, nil
}

func (g *Generator) generateRoutePath(spec *Spec, r route.Route) error {
	table, err := binding.Resolve(r.Path, r.Params, g.registry)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.Method, r.Path, err)
	}

	op := &Operation{
		Tags:        r.Tags,
		Summary:     r.Summary,
		Description: r.Description,
		OperationID: r.OperationID(),
		Deprecated:  r.Deprecated,
		Responses:   make(map[string]Response),
	}

	for _, b := range table.Bindings {
		switch b.Source {
		case binding.SourcePath, binding.SourceQuery, binding.SourceHeader, binding.SourceCookie:
			op.Parameters = append(op.Parameters, parameter(b))
		}
	}

	op.RequestBody = g.requestBody(table)

	status := r.SuccessStatus()
	op.Responses[strconv.Itoa(status)] = Response{
		Description: statusText(status),
		Content: map[string]MediaType{
			"application/json": {Schema: responseSchema(r)},
		},
	}
	if len(table.Bindings) > 0 {
		op.Responses["422"] = errorResponse("Validation Error")
	}
	if op.RequestBody != nil {
		op.Responses["400"] = errorResponse("Malformed Request")
	}
	if len(binding.PathPlaceholders(r.Path)) > 0 {
		op.Responses["404"] = errorResponse("Not Found")
	}

	path := OperationPath(r.Path)
	item := spec.Paths[path]
	switch strings.ToUpper(r.Method) {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodDelete:
		item.Delete = op
	default:
		return fmt.Errorf("%s %s: unsupported method", r.Method, r.Path)
	}
	spec.Paths[path] = item
	return nil
}

func parameter(b binding.Binding) Parameter {
	f := b.Field
	f.Nullable = false
	return Parameter{
		Name:        b.Key,
		In:          string(b.Source),
		Description: b.Param.Description,
		Required:    f.Required,
		Deprecated:  b.Param.Deprecated,
		Schema:      FieldSchema(f, ComponentsPrefix),
		Example:     b.Param.Example,
	}
}

func (g *Generator) requestBody(t *binding.Table) *RequestBody {
	if body := t.Body(); len(body) > 0 {
		if len(body) == 1 && !body[0].Embedded {
			b := body[0]
			media := MediaType{Schema: paramSchema(b)}
			if d, ok := g.registry.Resource(b.Param.Ref); ok && b.Param.Type == schema.FieldTypeObject && len(d.Examples) > 0 {
				media.Examples = make(map[string]Example, len(d.Examples))
				for _, name := range d.Examples.Names() {
					ex, _ := d.Examples.Get(name)
					media.Examples[name] = Example{Value: ex}
				}
			}
			return &RequestBody{
				Description: b.Param.Description,
				Required:    b.Param.Required,
				Content:     map[string]MediaType{"application/json": media},
			}
		}

		return &RequestBody{
			Required: anyRequired(body),
			Content: map[string]MediaType{
				"application/json": {Schema: objectOf(body)},
			},
		}
	}

	if !t.HasForm() {
		return nil
	}
	var form []binding.Binding
	for _, b := range t.Bindings {
		if b.Source == binding.SourceForm || b.Source == binding.SourceFile {
			form = append(form, b)
		}
	}
	contentType := "application/x-www-form-urlencoded"
	if t.HasFiles() {
		contentType = "multipart/form-data"
	}
	return &RequestBody{
		Required: anyRequired(form),
		Content: map[string]MediaType{
			contentType: {Schema: objectOf(form)},
		},
	}
}

// objectOf builds an object schema with one property per binding key.
func objectOf(bindings []binding.Binding) *Schema {
	s := &Schema{Type: Type("object"), Properties: NewProperties()}
	for _, b := range bindings {
		s.Properties.Set(b.Key, paramSchema(b))
		if b.Param.Required {
			s.Required = append(s.Required, b.Key)
		}
	}
	return s
}

func paramSchema(b binding.Binding) *Schema {
	p := b.Param
	var s *Schema
	switch {
	case b.Source == binding.SourceFile:
		s = &Schema{Type: Type("string"), Format: "binary"}
	case p.Variant != "":
		s = &Schema{Ref: ComponentsPrefix + p.Variant}
	case p.Type == schema.FieldTypeObject:
		s = &Schema{Ref: ComponentsPrefix + p.Ref}
	case p.Type == schema.FieldTypeObjects:
		s = &Schema{Type: Type("array"), Items: &Schema{Ref: ComponentsPrefix + p.Ref}}
	default:
		f := b.Field
		f.Nullable = false
		return FieldSchema(f, ComponentsPrefix)
	}
	s.Description = p.Description
	s.Deprecated = p.Deprecated
	return s
}

func anyRequired(bindings []binding.Binding) bool {
	for _, b := range bindings {
		if b.Param.Required {
			return true
		}
	}
	return false
}

func responseSchema(r route.Route) *Schema {
	var s *Schema
	switch {
	case r.ResponseVariant != "":
		s = &Schema{Ref: ComponentsPrefix + r.ResponseVariant}
	case r.Response != "":
		s = &Schema{Ref: ComponentsPrefix + r.Response}
	default:
		return &Schema{}
	}
	if r.ResponseList {
		return &Schema{Type: Type("array"), Items: s}
	}
	return s
}

func errorResponse(description string) Response {
	return Response{
		Description: description,
		Content: map[string]MediaType{
			jsonapi.ContentType: {Schema: &Schema{Ref: ComponentsPrefix + ErrorDocumentSchema}},
		},
	}
}

// errorDocumentSchema describes the JSON:API error documents written for
// every non-2xx response.
func errorDocumentSchema() *Schema {
	str := func() *Schema { return &Schema{Type: Type("string")} }

	source := &Schema{Type: Type("object"), Properties: NewProperties()}
	source.Properties.Set("pointer", str())
	source.Properties.Set("parameter", str())
	source.Properties.Set("header", str())

	item := &Schema{
		Type:       Type("object"),
		Properties: NewProperties(),
		Required:   []string{"status", "code", "title"},
	}
	item.Properties.Set("status", str())
	item.Properties.Set("code", str())
	item.Properties.Set("title", str())
	item.Properties.Set("detail", str())
	item.Properties.Set("source", source)
	item.Properties.Set("meta", &Schema{Type: Type("object")})

	doc := &Schema{
		Type:       Type("object"),
		Title:      ErrorDocumentSchema,
		Properties: NewProperties(),
		Required:   []string{"errors"},
	}
	doc.Properties.Set("errors", &Schema{Type: Type("array"), Items: item})
	return doc
}

var placeholderPattern = regexp.MustCompile(`\{([^}:]+):[^}]*\}`)

// OperationPath converts a route path to its OpenAPI form by dropping
// placeholder patterns: "/files/{path:.*}" becomes "/files/{path}".
func OperationPath(path string) string {
	return placeholderPattern.ReplaceAllString(path, "{$1}")
}

func statusText(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Successful Response"
}
