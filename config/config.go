// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONTRACTGATE_"

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	OpenAPI   OpenAPIConfig   `yaml:"openapi"`
	Users     UsersConfig     `yaml:"users"`
	Resources ResourcesConfig `yaml:"resources"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"gt=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UploadsConfig configures multipart uploads.
type UploadsConfig struct {
	MaxMemory    int64 `yaml:"max_memory" validate:"gt=0"`
	MaxFileBytes int64 `yaml:"max_file_bytes" validate:"gt=0"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"startswith=/"`
}

// OpenAPIConfig configures the generated documentation.
type OpenAPIConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Title       string `yaml:"title" validate:"required"`
	Version     string `yaml:"version" validate:"required"`
	Description string `yaml:"description"`
}

// UsersConfig configures password hashing for the users routes.
type UsersConfig struct {
	Hasher     string `yaml:"hasher" validate:"oneof=fake bcrypt"`
	BcryptCost int    `yaml:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// ResourcesConfig points at resource definitions on disk. An empty Dir
// uses the definitions built into the binary.
type ResourcesConfig struct {
	Dir string `yaml:"dir" validate:"omitempty,dir"`
}

// Default returns the configuration used for anything a file or the
// environment leaves out.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Uploads: UploadsConfig{
			MaxMemory:    32 << 20,
			MaxFileBytes: 10 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		OpenAPI: OpenAPIConfig{
			Enabled: true,
			Title:   "Project Tracker",
			Version: "1.0.0",
		},
		Users: UsersConfig{
			Hasher:     "fake",
			BcryptCost: 10,
		},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	CONTRACTGATE_SERVER_HOST             - Server host (default: 0.0.0.0)
//	CONTRACTGATE_SERVER_PORT             - Server port (default: 8080)
//	CONTRACTGATE_SERVER_READ_TIMEOUT     - Read timeout (default: 30s)
//	CONTRACTGATE_SERVER_WRITE_TIMEOUT    - Write timeout (default: 60s)
//	CONTRACTGATE_SERVER_SHUTDOWN_TIMEOUT - Graceful shutdown timeout (default: 10s)
//	CONTRACTGATE_SERVER_MAX_BODY_BYTES   - Request body limit (default: 1MiB)
//	CONTRACTGATE_UPLOADS_MAX_MEMORY      - Multipart memory threshold (default: 32MiB)
//	CONTRACTGATE_UPLOADS_MAX_FILE_BYTES  - Per-file upload limit (default: 10MiB)
//	CONTRACTGATE_LOG_LEVEL               - debug, info, warn, error (default: info)
//	CONTRACTGATE_LOG_FORMAT              - json or console (default: json)
//	CONTRACTGATE_METRICS_ENABLED         - Enable the metrics endpoint (default: true)
//	CONTRACTGATE_METRICS_PATH            - Metrics path (default: /metrics)
//	CONTRACTGATE_OPENAPI_ENABLED         - Enable /openapi.json and /docs (default: true)
//	CONTRACTGATE_OPENAPI_TITLE           - Document title
//	CONTRACTGATE_USERS_HASHER            - fake or bcrypt (default: fake)
//	CONTRACTGATE_USERS_BCRYPT_COST       - bcrypt cost (default: 10)
//	CONTRACTGATE_RESOURCES_DIR           - Directory of resource definitions
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads the file when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CONTRACTGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	envString("SERVER_HOST", &cfg.Server.Host)
	envInt("SERVER_PORT", &cfg.Server.Port)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt64("SERVER_MAX_BODY_BYTES", &cfg.Server.MaxBodyBytes)

	// Upload configuration
	envInt64("UPLOADS_MAX_MEMORY", &cfg.Uploads.MaxMemory)
	envInt64("UPLOADS_MAX_FILE_BYTES", &cfg.Uploads.MaxFileBytes)

	// Logging configuration
	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)

	// Metrics configuration
	envBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	envString("METRICS_PATH", &cfg.Metrics.Path)

	// OpenAPI configuration
	envBool("OPENAPI_ENABLED", &cfg.OpenAPI.Enabled)
	envString("OPENAPI_TITLE", &cfg.OpenAPI.Title)

	// Users configuration
	envString("USERS_HASHER", &cfg.Users.Hasher)
	envInt("USERS_BCRYPT_COST", &cfg.Users.BcryptCost)

	envString("RESOURCES_DIR", &cfg.Resources.Dir)
}

func envString(name string, dst *string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(name string, dst *int64) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration against its field rules. Every failing
// field is reported.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	// Namespace is "Config.server.port"; drop the root.
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s, got %q", field, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "dir":
		return fmt.Sprintf("%s must be an existing directory, got %q", field, fe.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	default:
		return fmt.Sprintf("%s must satisfy %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
}
