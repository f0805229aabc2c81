// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file with environment overrides; the
// resource catalog is embedded unless a directory is configured.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/contractgate/adapters/clock"
	"github.com/artpar/contractgate/adapters/hasher"
	"github.com/artpar/contractgate/adapters/idgen"
	"github.com/artpar/contractgate/adapters/metrics"
	"github.com/artpar/contractgate/app"
	"github.com/artpar/contractgate/config"
	"github.com/artpar/contractgate/core/binding"
	httpchannel "github.com/artpar/contractgate/core/channel/http"
	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/openapi"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/core/validation"
	"github.com/artpar/contractgate/ports"
)

// SwagName is the name the generated document is registered under with swag.
const SwagName = "contractgate"

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Validator  *validation.Validator
	Channel    *httpchannel.Channel
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Holder is set when the configuration came from a file.
	Holder *config.Holder
}

// Options configures New. The zero value loads defaults and environment
// overrides and logs to stdout.
type Options struct {
	// ConfigPath is a YAML config file. Empty or missing uses defaults.
	ConfigPath string

	// Config replaces file loading entirely.
	Config *config.Config

	// Watch reloads the config file on change and on SIGHUP.
	Watch bool

	// LogOutput receives log lines. Nil means stdout.
	LogOutput io.Writer

	// Clock stamps computed defaults. Nil means the real clock.
	Clock ports.Clock
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	cfg, fromFile, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := NewLogger(cfg.Logging, out)
	logger.Info().Msg("initializing contractgate")

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	v, err := NewValidator(cfg.Resources.Dir, clk)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("resources", len(v.Registry().Names())).
		Int("variants", len(v.Registry().VariantNames())).
		Msg("resource catalog loaded")

	a := &App{
		Logger:    logger,
		Config:    cfg,
		Validator: v,
	}

	chCfg := httpchannel.Config{
		Validator: v,
		Logger:    logger,
		IDs:       idgen.UUID{},
		Extract:   extractOptions(cfg),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(reg)
		chCfg.Metrics = a.Metrics
		chCfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
		chCfg.MetricsPath = cfg.Metrics.Path
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	if cfg.OpenAPI.Enabled {
		chCfg.Docs = &httpchannel.DocsConfig{
			Info: openapi.Info{
				Title:       cfg.OpenAPI.Title,
				Description: cfg.OpenAPI.Description,
				Version:     cfg.OpenAPI.Version,
			},
			SwagName: SwagName,
		}
	}

	a.Channel = httpchannel.New(chCfg)

	seed, err := app.NewSeed(v)
	if err != nil {
		return nil, fmt.Errorf("build seed: %w", err)
	}
	handlers := app.NewHandlers(seed, v, hasher.New(cfg.Users.Hasher, cfg.Users.BcryptCost), clk, logger)
	if err := app.Register(a.Channel, handlers); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	logger.Info().Int("routes", len(a.Channel.Routes())).Msg("routes registered")

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Channel.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if fromFile {
		holder, err := config.NewHolder(opts.ConfigPath, logger)
		if err != nil {
			return nil, err
		}
		a.Holder = holder
		if a.Metrics != nil {
			holder.SetMetrics(a.Metrics)
		}
		if opts.Watch {
			if err := holder.WatchFile(); err != nil {
				logger.Warn().Err(err).Msg("config file watch disabled")
			}
			holder.WatchSignals()
		}
	}

	return a, nil
}

// loadConfig reports whether the configuration came from a file.
func loadConfig(opts Options) (*config.Config, bool, error) {
	if opts.Config != nil {
		if err := config.Validate(opts.Config); err != nil {
			return nil, false, fmt.Errorf("validate config: %w", err)
		}
		return opts.Config, false, nil
	}

	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return nil, false, err
			}
			return cfg, true, nil
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

func extractOptions(cfg *config.Config) binding.ExtractOptions {
	return binding.ExtractOptions{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MaxMemory:    cfg.Uploads.MaxMemory,
		MaxFileBytes: cfg.Uploads.MaxFileBytes,
	}
}

// LoadCatalog parses resource definitions from dir, or the embedded
// definitions when dir is empty.
func LoadCatalog(dir string) (schema.Catalog, error) {
	if dir == "" {
		cat, err := app.Catalog()
		if err != nil {
			return schema.Catalog{}, fmt.Errorf("parse embedded resources: %w", err)
		}
		return cat, nil
	}
	cat, err := schema.ParseDir(dir)
	if err != nil {
		return schema.Catalog{}, fmt.Errorf("parse resources in %s: %w", dir, err)
	}
	return cat, nil
}

// NewValidator loads and derives the catalog and checks every example
// against its resource.
func NewValidator(dir string, clk ports.Clock) (*validation.Validator, error) {
	cat, err := LoadCatalog(dir)
	if err != nil {
		return nil, err
	}
	reg, err := convention.DeriveCatalog(cat)
	if err != nil {
		return nil, fmt.Errorf("derive resources: %w", err)
	}
	v := validation.New(reg, clk)
	if err := openapi.VerifyExamples(v); err != nil {
		return nil, fmt.Errorf("verify examples: %w", err)
	}
	return v, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.Channel.Handler()
}

// Run starts the HTTP server and blocks until ctx is done, SIGINT or
// SIGTERM arrives, or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		a.Logger.Info().Msg("context done, shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	var err error
	if a.HTTPServer != nil {
		if err = a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return err
}

// NewLogger builds the process logger and sets the global level.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
