package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/contractgate/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 5s
  shutdown_timeout: 2s
  max_body_bytes: 2048

uploads:
  max_file_bytes: 4096

logging:
  level: debug
  format: console

openapi:
  title: "Tracker"
  version: "2.0.0"

users:
  hasher: bcrypt
  bcrypt_cost: 4
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 2*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 2s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.MaxBodyBytes != 2048 {
		t.Errorf("MaxBodyBytes = %d, want 2048", cfg.Server.MaxBodyBytes)
	}
	if cfg.Uploads.MaxFileBytes != 4096 {
		t.Errorf("Uploads.MaxFileBytes = %d, want 4096", cfg.Uploads.MaxFileBytes)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v, want debug/console", cfg.Logging)
	}
	if cfg.OpenAPI.Title != "Tracker" || cfg.OpenAPI.Version != "2.0.0" {
		t.Errorf("OpenAPI = %+v", cfg.OpenAPI)
	}
	if cfg.Users.Hasher != "bcrypt" || cfg.Users.BcryptCost != 4 {
		t.Errorf("Users = %+v, want bcrypt/4", cfg.Users)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "")

	want := config.Default()
	if *cfg != want {
		t.Errorf("empty file config = %+v, want defaults %+v", *cfg, want)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics = %+v", cfg.Metrics)
	}
	if !cfg.OpenAPI.Enabled {
		t.Error("OpenAPI should be enabled by default")
	}
	if cfg.Users.Hasher != "fake" {
		t.Errorf("default Users.Hasher = %s, want fake", cfg.Users.Hasher)
	}
}

func TestLoad_PartialSectionKeepsDefaults(t *testing.T) {
	cfg := writeAndLoad(t, `
server:
  port: 7070
metrics:
  enabled: false
`)

	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %s, want default 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("WriteTimeout = %v, want default 60s", cfg.Server.WriteTimeout)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %s, want default /metrics", cfg.Metrics.Path)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_OPENAPI_TITLE", "Expanded")

	cfg := writeAndLoad(t, `
openapi:
  title: "${TEST_OPENAPI_TITLE}"
`)

	if cfg.OpenAPI.Title != "Expanded" {
		t.Errorf("OpenAPI.Title = %s, want Expanded", cfg.OpenAPI.Title)
	}
}

func TestLoad_ResourcesDir(t *testing.T) {
	dir := t.TempDir()

	cfg := writeAndLoad(t, "resources:\n  dir: "+dir+"\n")
	if cfg.Resources.Dir != dir {
		t.Errorf("Resources.Dir = %s, want %s", cfg.Resources.Dir, dir)
	}

	_, err := writeAndLoadErr(t, "resources:\n  dir: "+filepath.Join(dir, "missing")+"\n")
	if err == nil || !strings.Contains(err.Error(), "resources.dir must be an existing directory") {
		t.Errorf("missing dir error = %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "port out of range",
			content: "server:\n  port: 70000\n",
			wantErr: "server.port must satisfy lte=65535",
		},
		{
			name:    "unknown log level",
			content: "logging:\n  level: loud\n",
			wantErr: `logging.level must be one of: debug, info, warn, error, got "loud"`,
		},
		{
			name:    "unknown log format",
			content: "logging:\n  format: xml\n",
			wantErr: "logging.format must be one of",
		},
		{
			name:    "metrics path without slash",
			content: "metrics:\n  path: metrics\n",
			wantErr: `metrics.path must start with "/"`,
		},
		{
			name:    "empty title",
			content: "openapi:\n  title: \"\"\n",
			wantErr: "openapi.title is required",
		},
		{
			name:    "unknown hasher",
			content: "users:\n  hasher: md5\n",
			wantErr: "users.hasher must be one of: fake, bcrypt",
		},
		{
			name:    "bcrypt cost too low",
			content: "users:\n  bcrypt_cost: 2\n",
			wantErr: "users.bcrypt_cost must satisfy gte=4",
		},
		{
			name:    "zero body limit",
			content: "server:\n  max_body_bytes: 0\n",
			wantErr: "server.max_body_bytes must satisfy gt=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeAndLoadErr(t, tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ReportsEveryInvalidField(t *testing.T) {
	_, err := writeAndLoadErr(t, `
server:
  port: 0
logging:
  level: loud
`)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "logging.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %v, want it to mention %s", err, want)
		}
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := writeAndLoadErr(t, "server: [unclosed")
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Errorf("error = %v, want parse config", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONTRACTGATE_SERVER_HOST", "localhost")
	t.Setenv("CONTRACTGATE_SERVER_PORT", "9000")
	t.Setenv("CONTRACTGATE_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("CONTRACTGATE_SERVER_WRITE_TIMEOUT", "4s")
	t.Setenv("CONTRACTGATE_SERVER_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("CONTRACTGATE_SERVER_MAX_BODY_BYTES", "100")
	t.Setenv("CONTRACTGATE_UPLOADS_MAX_MEMORY", "200")
	t.Setenv("CONTRACTGATE_UPLOADS_MAX_FILE_BYTES", "300")
	t.Setenv("CONTRACTGATE_LOG_LEVEL", "warn")
	t.Setenv("CONTRACTGATE_LOG_FORMAT", "console")
	t.Setenv("CONTRACTGATE_METRICS_ENABLED", "no")
	t.Setenv("CONTRACTGATE_METRICS_PATH", "/stats")
	t.Setenv("CONTRACTGATE_OPENAPI_ENABLED", "0")
	t.Setenv("CONTRACTGATE_OPENAPI_TITLE", "From Env")
	t.Setenv("CONTRACTGATE_USERS_HASHER", "bcrypt")
	t.Setenv("CONTRACTGATE_USERS_BCRYPT_COST", "5")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	want := config.Config{
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            9000,
			ReadTimeout:     3 * time.Second,
			WriteTimeout:    4 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    100,
		},
		Uploads:   config.UploadsConfig{MaxMemory: 200, MaxFileBytes: 300},
		Logging:   config.LoggingConfig{Level: "warn", Format: "console"},
		Metrics:   config.MetricsConfig{Enabled: false, Path: "/stats"},
		OpenAPI:   config.OpenAPIConfig{Enabled: false, Title: "From Env", Version: "1.0.0"},
		Users:     config.UsersConfig{Hasher: "bcrypt", BcryptCost: 5},
		Resources: config.ResourcesConfig{},
	}
	if *cfg != want {
		t.Errorf("LoadFromEnv() = %+v\nwant %+v", *cfg, want)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CONTRACTGATE_SERVER_PORT", "9999")
	t.Setenv("CONTRACTGATE_LOG_LEVEL", "error")

	cfg := writeAndLoad(t, `
server:
  port: 8080
logging:
  level: debug
`)

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
}

func TestEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("CONTRACTGATE_SERVER_PORT", "not-a-number")
	t.Setenv("CONTRACTGATE_SERVER_READ_TIMEOUT", "soon")
	t.Setenv("CONTRACTGATE_UPLOADS_MAX_FILE_BYTES", "lots")

	cfg := writeAndLoad(t, "server:\n  port: 7000\n")

	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000 (invalid env ignored)", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s (invalid env ignored)", cfg.Server.ReadTimeout)
	}
	if cfg.Uploads.MaxFileBytes != 10<<20 {
		t.Errorf("MaxFileBytes = %d, want default (invalid env ignored)", cfg.Uploads.MaxFileBytes)
	}
}

func TestEnvOverrides_InvalidValueFailsValidation(t *testing.T) {
	t.Setenv("CONTRACTGATE_USERS_HASHER", "plaintext")

	_, err := config.LoadFromEnv()
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadWithFallback(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 6060\n")

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("Port = %d, want 6060 from file", cfg.Server.Port)
	}

	cfg, err = config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback without file error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Server.Port)
	}

	if _, err := config.LoadWithFallback(""); err != nil {
		t.Errorf("LoadWithFallback(\"\") error: %v", err)
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"off", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("CONTRACTGATE_METRICS_ENABLED", tt.value)
			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv error: %v", err)
			}
			if cfg.Metrics.Enabled != tt.want {
				t.Errorf("METRICS_ENABLED=%q gave %v, want %v", tt.value, cfg.Metrics.Enabled, tt.want)
			}
		})
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	return config.Load(writeConfig(t, content))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
