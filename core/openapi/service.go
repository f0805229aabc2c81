package openapi

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/route"
)

// Service serves the generated document with caching and keeps the swag
// registry in sync with it.
type Service struct {
	registry *convention.Registry
	routes   func() []route.Route
	info     Info
	swagName string
	logger   zerolog.Logger

	cache atomic.Pointer[cachedSpec]
	mu    sync.Mutex // Protects cache generation
}

// cachedSpec holds a generated spec with metadata.
type cachedSpec struct {
	spec        *Spec
	generatedAt time.Time
}

// ServiceConfig contains configuration for the OpenAPI service.
type ServiceConfig struct {
	Registry *convention.Registry

	// Routes returns the current route table.
	Routes func() []route.Route

	Info Info

	// SwagName is the swag instance name the document is published under.
	SwagName string

	Logger zerolog.Logger
}

// NewService creates a new OpenAPI service.
func NewService(cfg ServiceConfig) *Service {
	name := cfg.SwagName
	if name == "" {
		name = "contractgate"
	}

	return &Service{
		registry: cfg.Registry,
		routes:   cfg.Routes,
		info:     cfg.Info,
		swagName: name,
		logger:   cfg.Logger,
	}
}

// SwagName returns the swag instance name of the document.
func (s *Service) SwagName() string {
	return s.swagName
}

// Spec returns the document with baseURL as its server. The document is
// generated once and reused until Invalidate.
func (s *Service) Spec(baseURL string) (*Spec, error) {
	if cached := s.cache.Load(); cached != nil {
		return cloneSpecWithServer(cached.spec, baseURL), nil
	}

	// Generate with mutex to prevent thundering herd
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached := s.cache.Load(); cached != nil {
		return cloneSpecWithServer(cached.spec, baseURL), nil
	}

	g := NewGenerator(s.registry, s.routes())
	g.SetInfo(s.info)
	spec, err := g.Generate()
	if err != nil {
		return nil, err
	}
	if _, err := Register(s.swagName, spec); err != nil {
		s.logger.Warn().Err(err).Str("swag", s.swagName).Msg("openapi document not published")
	}

	s.cache.Store(&cachedSpec{spec: spec, generatedAt: time.Now()})
	s.logger.Debug().Int("paths", len(spec.Paths)).Msg("openapi document generated")

	return cloneSpecWithServer(spec, baseURL), nil
}

// Invalidate forces the next Spec call to regenerate the document.
func (s *Service) Invalidate() {
	s.cache.Store(nil)
	s.logger.Debug().Msg("openapi cache invalidated")
}

// cloneSpecWithServer returns a shallow copy of spec whose only server is
// baseURL. An empty baseURL keeps the configured servers.
func cloneSpecWithServer(spec *Spec, baseURL string) *Spec {
	clone := *spec
	if baseURL != "" {
		clone.Servers = []Server{{URL: baseURL}}
	}
	return &clone
}
