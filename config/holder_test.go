package config_test

import (
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/artpar/contractgate/adapters/metrics"
	"github.com/artpar/contractgate/config"
)

func TestHolder_Get(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", got.Server.Port)
	}
}

func TestHolder_NewHolderInvalid(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")

	if _, err := config.NewHolder(path, zerolog.Nop()); err == nil {
		t.Error("NewHolder should fail for invalid config")
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())
	restoreLevel(t)

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	h.SetMetrics(m)

	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if got := h.Get().Logging.Level; got != "warn" {
		t.Errorf("reloaded Logging.Level = %s, want warn", got)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("global level = %v, want warn", zerolog.GlobalLevel())
	}
	if got := testutil.ToFloat64(m.ConfigReloads); got != 1 {
		t.Errorf("ConfigReloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigLastReload); got == 0 {
		t.Error("ConfigLastReload was not set")
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())
	restoreLevel(t)

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var called bool
	var receivedCfg *config.Config

	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		called = true
		receivedCfg = cfg
		mu.Unlock()
	})

	if err := os.WriteFile(path, []byte("openapi:\n  title: Renamed\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("OnChange callback was not called")
	}
	if receivedCfg == nil {
		t.Error("received nil config in callback")
	} else if receivedCfg.OpenAPI.Title != "Renamed" {
		t.Errorf("callback received title = %s, want Renamed", receivedCfg.OpenAPI.Title)
	}
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	h.SetMetrics(m)

	if err := os.WriteFile(path, []byte("users:\n  hasher: md5\n"), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if err := h.Reload(); err == nil {
		t.Error("Reload should fail for invalid config")
	}

	// Old config should still be in place
	if got := h.Get(); got.Server.Port != 8181 || got.Users.Hasher != "fake" {
		t.Errorf("should keep old config, got %+v", got)
	}
	if got := testutil.ToFloat64(m.ConfigReloadErrors); got != 1 {
		t.Errorf("ConfigReloadErrors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigReloads); got != 0 {
		t.Errorf("ConfigReloads = %v, want 0", got)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())
	restoreLevel(t)

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	changed := make(chan struct{}, 8)
	h.OnChange(func(cfg *config.Config) {
		changed <- struct{}{}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  port: 5000\n"), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for h.Get().Server.Port != 5000 {
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("file watcher did not reload; Server.Port = %d", h.Get().Server.Port)
		}
	}
}

func TestHolder_StopTwice(t *testing.T) {
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.WatchSignals()
	h.Stop()
	h.Stop()
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())
	restoreLevel(t)

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	// Start many readers
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if h.Get() == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	// Concurrent reloads
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}

	wg.Wait()
}

func TestApplyLogLevel(t *testing.T) {
	restoreLevel(t)

	config.ApplyLogLevel("error")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("global level = %v, want error", zerolog.GlobalLevel())
	}

	config.ApplyLogLevel("nonsense")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("unknown level changed global level to %v", zerolog.GlobalLevel())
	}
}

func TestReloadableFields(t *testing.T) {
	reloadable := config.ReloadableFields()
	if !slices.Contains(reloadable, "logging.level") {
		t.Errorf("logging.level not in ReloadableFields: %v", reloadable)
	}

	fixed := config.NonReloadableFields()
	for _, e := range []string{"server.host", "server.port", "users.hasher", "resources.dir"} {
		if !slices.Contains(fixed, e) {
			t.Errorf("%s not in NonReloadableFields", e)
		}
	}
	for _, f := range reloadable {
		if slices.Contains(fixed, f) {
			t.Errorf("%s is listed as both reloadable and not", f)
		}
	}
}

// Helpers

func validConfig() string {
	return `
server:
  port: 8181

logging:
  level: info
`
}

func restoreLevel(t *testing.T) {
	t.Helper()
	level := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })
}
