// Package route declares the routes of an API: method, path, typed inputs,
// the response resource, and the handler that computes the result.
package route

import (
	"context"
	"net/http"

	"github.com/artpar/contractgate/core/binding"
)

// Args are the validated inputs a handler receives.
type Args = binding.Args

// Handler computes the result of a request from validated inputs.
// Handlers never see raw request data and never write responses.
type Handler func(ctx context.Context, args Args) Result

// Route declares one operation.
type Route struct {
	Method string
	Path   string

	// Name is the operation id in generated docs.
	Name        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool

	// Status is the success status. Defaults to 200.
	Status int

	Params []binding.Param

	// Response names the resource the result is shaped against. Empty
	// means the result is written as is.
	Response string

	// ResponseVariant names a variant set to shape the result against.
	ResponseVariant string

	// ResponseList shapes a list of Response.
	ResponseList bool

	// ExcludeUnset drops fields the handler never set.
	ExcludeUnset bool

	// ExcludeNone drops fields holding no value.
	ExcludeNone bool

	Handler Handler
}

// SuccessStatus returns the declared success status.
func (r Route) SuccessStatus() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// OperationID returns the route name, or one derived from method and path.
func (r Route) OperationID() string {
	if r.Name != "" {
		return r.Name
	}
	id := make([]byte, 0, len(r.Method)+len(r.Path))
	for _, c := range []byte(r.Method + r.Path) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			id = append(id, c)
		case c >= 'A' && c <= 'Z':
			id = append(id, c+('a'-'A'))
		default:
			if len(id) > 0 && id[len(id)-1] != '_' {
				id = append(id, '_')
			}
		}
	}
	for len(id) > 0 && id[len(id)-1] == '_' {
		id = id[:len(id)-1]
	}
	return string(id)
}
