// Package http provides the HTTP dispatch channel. Routes are registered
// once; each request then runs extract, bind, invoke, shape and write, and
// every failure is written as a JSON:API error document.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/artpar/contractgate/adapters/metrics"
	"github.com/artpar/contractgate/core/binding"
	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/openapi"
	"github.com/artpar/contractgate/core/route"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/core/shaping"
	"github.com/artpar/contractgate/core/validation"
	"github.com/artpar/contractgate/pkg/jsonapi"
	"github.com/artpar/contractgate/ports"
)

// Registration errors.
var (
	ErrInvalidRoute   = errors.New("invalid route")
	ErrDuplicateRoute = errors.New("duplicate route")
)

// placeholderName matches the name part of a path placeholder. Routes that
// differ only in placeholder names are duplicates.
var placeholderName = regexp.MustCompile(`\{[^}:]+`)

// SignalHandler writes the response for a domain signal.
type SignalHandler func(w http.ResponseWriter, r *http.Request, sig route.DomainSignal)

// Config configures a Channel.
type Config struct {
	Validator *validation.Validator
	Logger    zerolog.Logger

	// IDs generates request ids. Nil uses chi's request id format.
	IDs ports.IDGenerator

	// Metrics records dispatch metrics; MetricsHandler is served at
	// MetricsPath. Either may be nil.
	Metrics        *metrics.Collector
	MetricsHandler http.Handler
	MetricsPath    string

	// Extract bounds request bodies and uploads.
	Extract binding.ExtractOptions

	// Docs enables /openapi.json and the Swagger UI. Nil disables them.
	Docs *DocsConfig
}

// DocsConfig configures the generated documentation.
type DocsConfig struct {
	Info     openapi.Info
	SwagName string
}

// registered is a route with its resolved binding table.
type registered struct {
	route route.Route
	table *binding.Table
	shape shaping.Spec
	label string
}

// Channel implements the HTTP channel.
type Channel struct {
	router    chi.Router
	validator *validation.Validator
	logger    zerolog.Logger
	metrics   *metrics.Collector
	extract   binding.ExtractOptions
	docs      *openapi.Service

	mu      sync.RWMutex
	routes  []route.Route
	keys    map[string]bool
	signals map[string]SignalHandler
}

// New creates a new HTTP channel with its middleware and built-in
// endpoints mounted.
func New(cfg Config) *Channel {
	c := &Channel{
		router:    chi.NewRouter(),
		validator: cfg.Validator,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		extract:   cfg.Extract,
		keys:      make(map[string]bool),
		signals:   make(map[string]SignalHandler),
	}

	// Middleware
	if cfg.IDs != nil {
		c.router.Use(RequestID(cfg.IDs))
	} else {
		c.router.Use(middleware.RequestID)
	}
	c.router.Use(middleware.RealIP)
	c.router.Use(NewLoggingMiddleware(c.logger))
	if c.metrics != nil {
		c.router.Use(NewMetricsMiddleware(c.metrics))
	}
	c.router.Use(NewRecoverer(c.logger))

	c.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusNotFound, "not_found", "Not Found").
			Detailf("No route matches %s", r.URL.Path).Build())
	})
	c.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteMethodNotAllowed(w, r.Method, nil)
	})

	c.router.Get("/health", handleHealth)

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		c.router.Handle(path, cfg.MetricsHandler)
	}

	// Register schema introspection routes
	schemaHandler := NewSchemaHandler(c.validator.Registry())
	c.router.Mount("/_schema", schemaHandler.Routes())

	if cfg.Docs != nil {
		c.docs = openapi.NewService(openapi.ServiceConfig{
			Registry: c.validator.Registry(),
			Routes:   c.Routes,
			Info:     cfg.Docs.Info,
			SwagName: cfg.Docs.SwagName,
			Logger:   c.logger,
		})
		c.mountDocs()
	}

	return c
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "http"
}

// Handler returns the HTTP handler.
func (c *Channel) Handler() http.Handler {
	return c.router
}

// Docs returns the documentation service, or nil when docs are disabled.
func (c *Channel) Docs() *openapi.Service {
	return c.docs
}

// Routes returns the registered routes in registration order.
func (c *Channel) Routes() []route.Route {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]route.Route(nil), c.routes...)
}

// Register resolves the route's parameters and mounts it. Any declaration
// the dispatcher could not serve fails here, never at request time.
func (c *Channel) Register(rt route.Route) error {
	method := strings.ToUpper(rt.Method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("%w: %s %s: unsupported method", ErrInvalidRoute, rt.Method, rt.Path)
	}
	rt.Method = method

	if !strings.HasPrefix(rt.Path, "/") {
		return fmt.Errorf("%w: %s %s: path must start with /", ErrInvalidRoute, rt.Method, rt.Path)
	}
	if rt.Handler == nil {
		return fmt.Errorf("%w: %s %s: no handler", ErrInvalidRoute, rt.Method, rt.Path)
	}

	reg := c.validator.Registry()
	if rt.Response != "" {
		if _, ok := reg.Resource(rt.Response); !ok {
			return fmt.Errorf("%s %s: response: %w: %s", rt.Method, rt.Path, convention.ErrUnknownResource, rt.Response)
		}
	}
	if rt.ResponseVariant != "" {
		if _, ok := reg.Variant(rt.ResponseVariant); !ok {
			return fmt.Errorf("%s %s: response: %w: variant %s", rt.Method, rt.Path, convention.ErrUnknownResource, rt.ResponseVariant)
		}
	}

	table, err := binding.Resolve(rt.Path, rt.Params, reg)
	if err != nil {
		return fmt.Errorf("%s %s: %w", rt.Method, rt.Path, err)
	}

	key := rt.Method + " " + placeholderName.ReplaceAllString(rt.Path, "{")

	c.mu.Lock()
	if c.keys[key] {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, key)
	}
	c.keys[key] = true
	c.routes = append(c.routes, rt)
	c.mu.Unlock()

	reg2 := &registered{
		route: rt,
		table: table,
		label: rt.Method + " " + rt.Path,
		shape: shaping.Spec{
			Resource: rt.Response,
			Variant:  rt.ResponseVariant,
			List:     rt.ResponseList,
			EncodeOptions: schema.EncodeOptions{
				ExcludeUnset: rt.ExcludeUnset,
				ExcludeNone:  rt.ExcludeNone,
			},
		},
	}
	c.router.Method(rt.Method, rt.Path, c.dispatch(reg2))

	if c.docs != nil {
		c.docs.Invalidate()
	}

	c.logger.Debug().
		Str("method", rt.Method).
		Str("path", rt.Path).
		Int("params", len(table.Bindings)).
		Msg("route registered")
	return nil
}

// HandleSignal registers the response writer for a domain signal name.
func (c *Channel) HandleSignal(name string, h SignalHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals[name] = h
}

func (c *Channel) signalHandler(name string) (SignalHandler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.signals[name]
	return h, ok
}

// WriteJSON writes v as a JSON response. Signal handlers use it.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
