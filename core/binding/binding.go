// Package binding resolves where each handler input comes from.
//
// A route declares its inputs as Params. Resolve turns them into a binding
// Table once, at registration; Extract and Bind use the cached table for
// every request and never re-infer sources.
//
// Resolution order for a parameter:
//
//  1. An explicit source (In) always wins.
//  2. A name that is a {placeholder} in the route path reads from the path.
//  3. An object parameter that is the only body parameter, and is not
//     embedded, reads the whole JSON body.
//  4. When several body parameters exist, each object must be embedded and
//     reads body[key]; explicit body scalars are always embedded.
//  5. Any other scalar reads from the query string.
package binding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/schema"
)

// Source is the part of a request a parameter is read from.
type Source string

const (
	SourceAuto   Source = ""
	SourcePath   Source = "path"
	SourceQuery  Source = "query"
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
	SourceForm   Source = "form"
	SourceFile   Source = "file"
	SourceBody   Source = "body"
)

// Registration errors. Resolve wraps them with the route and parameter.
var (
	ErrInvalidParam        = errors.New("invalid parameter")
	ErrDuplicateParam      = errors.New("duplicate parameter")
	ErrUnboundPlaceholder  = errors.New("path placeholder has no parameter")
	ErrEmbedRequired       = errors.New("body object must be embedded when the route has several body parameters")
	ErrMixedBody           = errors.New("route mixes a JSON body with form or file parameters")
	ErrNonScalarPathParam  = errors.New("path parameters must be scalar")
	ErrUnknownResourceType = errors.New("unknown resource type")
)

// Param declares one handler input.
type Param struct {
	// Name is the argument name handlers read it by.
	Name string

	// Alias is the wire key when it differs from Name.
	Alias string

	// In is the explicit source; SourceAuto lets Resolve infer it.
	In Source

	// Type is the value type. Object and objects parameters name a
	// resource in Ref; a Variant parameter names a variant set instead.
	Type    schema.FieldType
	Ref     string
	Variant string

	Required    bool
	Default     any
	DefaultFunc string
	Values      []string
	Constraints []schema.Constraint

	// Embed reads a body parameter from body[key] instead of the whole body.
	Embed bool

	Title       string
	Description string
	Deprecated  bool
	Example     any

	// KeepUnderscores disables the header convention of reading
	// user_agent from the User-Agent header.
	KeepUnderscores bool
}

// IsObject reports whether the parameter is validated as a resource.
func (p Param) IsObject() bool {
	return p.Type.IsNested() || p.Variant != ""
}

// Binding is a resolved parameter.
type Binding struct {
	Param Param

	// Source is the resolved source.
	Source Source

	// Key is the wire key in that source.
	Key string

	// Embedded is true for body parameters read from body[Key].
	Embedded bool

	// Field is the derived pseudo-field used to validate scalars.
	Field convention.DerivedField
}

// Table is the resolved binding table of one route.
type Table struct {
	Path     string
	Bindings []Binding
}

// Body returns the body bindings.
func (t *Table) Body() []Binding {
	return t.filter(SourceBody)
}

// HasForm reports whether the route reads form fields or files.
func (t *Table) HasForm() bool {
	return len(t.filter(SourceForm)) > 0 || len(t.filter(SourceFile)) > 0
}

// HasFiles reports whether the route reads uploaded files.
func (t *Table) HasFiles() bool {
	return len(t.filter(SourceFile)) > 0
}

// Get returns the binding for a parameter name.
func (t *Table) Get(name string) (Binding, bool) {
	for _, b := range t.Bindings {
		if b.Param.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

func (t *Table) filter(src Source) []Binding {
	var out []Binding
	for _, b := range t.Bindings {
		if b.Source == src {
			out = append(out, b)
		}
	}
	return out
}

var placeholderRe = regexp.MustCompile(`\{([^}:]+)(?::[^}]*)?\}`)

// PathPlaceholders returns the placeholder names of a route path.
// "/items/{item_id}/{file:.*}" yields [item_id file].
func PathPlaceholders(path string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(path, -1) {
		names = append(names, strings.TrimSpace(m[1]))
	}
	return names
}

// Resolve builds the binding table of a route. It fails on any declaration
// the dispatcher could not serve unambiguously.
func Resolve(path string, params []Param, reg *convention.Registry) (*Table, error) {
	placeholders := make(map[string]bool)
	for _, name := range PathPlaceholders(path) {
		placeholders[name] = true
	}

	t := &Table{Path: path}
	names := make(map[string]bool, len(params))

	// Sources first; body embedding depends on how many body params exist.
	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("%s: %w: empty name", path, ErrInvalidParam)
		}
		if names[p.Name] {
			return nil, fmt.Errorf("%s: %w %q", path, ErrDuplicateParam, p.Name)
		}
		names[p.Name] = true

		if err := checkType(p, reg); err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", path, p.Name, err)
		}

		src := p.In
		if src == SourceAuto {
			switch {
			case placeholders[p.Name] || (p.Alias != "" && placeholders[p.Alias]):
				src = SourcePath
			case p.IsObject():
				src = SourceBody
			default:
				src = SourceQuery
			}
		}

		t.Bindings = append(t.Bindings, Binding{Param: p, Source: src, Key: wireKey(p, src)})
	}

	body := t.Body()
	if len(body) > 0 && t.HasForm() {
		return nil, fmt.Errorf("%s: %w", path, ErrMixedBody)
	}

	seen := make(map[Source]map[string]string)
	bound := make(map[string]bool)
	for i := range t.Bindings {
		b := &t.Bindings[i]
		p := b.Param

		switch b.Source {
		case SourcePath:
			if !placeholders[b.Key] {
				return nil, fmt.Errorf("%s: parameter %q: %w: no {%s} placeholder", path, p.Name, ErrInvalidParam, b.Key)
			}
			if !p.Type.IsScalar() {
				return nil, fmt.Errorf("%s: parameter %q: %w", path, p.Name, ErrNonScalarPathParam)
			}
			bound[b.Key] = true
		case SourceBody:
			switch {
			case !p.IsObject():
				b.Embedded = true
			case len(body) == 1 && !p.Embed:
				b.Embedded = false
			case p.Embed:
				b.Embedded = true
			default:
				return nil, fmt.Errorf("%s: parameter %q: %w", path, p.Name, ErrEmbedRequired)
			}
		case SourceQuery, SourceHeader, SourceCookie, SourceForm:
			if p.IsObject() {
				return nil, fmt.Errorf("%s: parameter %q: %w: %s parameters must be scalar or lists", path, p.Name, ErrInvalidParam, b.Source)
			}
		case SourceFile:
		default:
			return nil, fmt.Errorf("%s: parameter %q: %w: unknown source %q", path, p.Name, ErrInvalidParam, b.Source)
		}

		// Whole-body parameters have no key of their own.
		if b.Source != SourceBody || b.Embedded {
			keys := seen[b.Source]
			if keys == nil {
				keys = make(map[string]string)
				seen[b.Source] = keys
			}
			lookup := b.Key
			if b.Source == SourceHeader {
				lookup = strings.ToLower(lookup)
			}
			if other, dup := keys[lookup]; dup {
				return nil, fmt.Errorf("%s: parameters %q and %q: %w key %q in %s", path, other, p.Name, ErrDuplicateParam, b.Key, b.Source)
			}
			keys[lookup] = p.Name
		}

		field, err := deriveParamField(p, b.Source)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", path, p.Name, err)
		}
		b.Field = field
	}

	for name := range placeholders {
		if !bound[name] {
			return nil, fmt.Errorf("%s: %w: {%s}", path, ErrUnboundPlaceholder, name)
		}
	}

	return t, nil
}

func checkType(p Param, reg *convention.Registry) error {
	if p.Variant != "" {
		if _, ok := reg.Variant(p.Variant); !ok {
			return fmt.Errorf("%w: variant %q", ErrUnknownResourceType, p.Variant)
		}
		return nil
	}
	if p.In == SourceFile {
		return nil
	}
	if p.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidParam)
	}
	if p.Type.IsNested() {
		if _, ok := reg.Resource(p.Ref); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownResourceType, p.Ref)
		}
	}
	return nil
}

// wireKey returns the key a parameter is read by in its source.
func wireKey(p Param, src Source) string {
	key := p.Name
	if p.Alias != "" {
		key = p.Alias
	}
	if src == SourceHeader && p.Alias == "" && !p.KeepUnderscores {
		key = strings.ReplaceAll(key, "_", "-")
	}
	return key
}

// deriveParamField builds the pseudo-field a parameter is validated with.
func deriveParamField(p Param, src Source) (convention.DerivedField, error) {
	if p.Variant != "" || src == SourceFile {
		return convention.DerivedField{
			Name:        p.Name,
			Key:         p.Name,
			Type:        p.Type,
			Required:    p.Required,
			Description: p.Description,
			Deprecated:  p.Deprecated,
		}, nil
	}

	f := schema.Field{
		Type:        p.Type,
		Ref:         p.Ref,
		Required:    schema.Bool(p.Required || src == SourcePath),
		Default:     p.Default,
		DefaultFunc: p.DefaultFunc,
		Values:      p.Values,
		Title:       p.Title,
		Description: p.Description,
		Deprecated:  p.Deprecated,
		Constraints: p.Constraints,
	}
	df, err := convention.DeriveField(p.Name, f)
	if err != nil {
		return convention.DerivedField{}, fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	return df, nil
}
