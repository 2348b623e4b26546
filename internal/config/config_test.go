package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OCR.Workers != 50 {
		t.Errorf("expected 50 workers, got %d", cfg.OCR.Workers)
	}
	if cfg.OCR.Language != "por" {
		t.Errorf("expected por, got %s", cfg.OCR.Language)
	}
	if cfg.Raster.DPI != 216 {
		t.Errorf("expected 216 dpi, got %d", cfg.Raster.DPI)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultConfig_MatchesEntries(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	got, want := mgr.Get(), DefaultConfig()
	if *got != *want {
		t.Errorf("defaults from entries = %+v, want %+v", got, want)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
input_dir: notas
ocr:
  workers: 8
  job_timeout: 90s
`)
		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.InputDir != "notas" {
			t.Errorf("expected notas, got %s", cfg.InputDir)
		}
		if cfg.OCR.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", cfg.OCR.Workers)
		}
		if cfg.OCR.Language != "por" {
			t.Errorf("expected default language, got %s", cfg.OCR.Language)
		}
		if d, _ := cfg.JobTimeout(); d != 90*time.Second {
			t.Errorf("expected 90s timeout, got %s", d)
		}
		if mgr.File() != configFile {
			t.Errorf("File() = %s, want %s", mgr.File(), configFile)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("NOTAS_OCR_WORKERS", "3")
		t.Setenv("NOTAS_FAILED_PREFIX", "ERRO - ")

		mgr, err := NewManager(writeConfig(t, "ocr:\n  workers: 8\n"))
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.OCR.Workers != 3 {
			t.Errorf("expected 3 workers from env, got %d", cfg.OCR.Workers)
		}
		if cfg.FailedPrefix != "ERRO - " {
			t.Errorf("expected prefix from env, got %q", cfg.FailedPrefix)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"zero workers", "ocr:\n  workers: 0\n"},
			{"tiny dpi", "raster:\n  dpi: 10\n"},
			{"bad timeout", "ocr:\n  job_timeout: soon\n"},
			{"bad level", "log_level: loud\n"},
			{"prefix with slash", "failed_prefix: \"a/b\"\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := NewManager(writeConfig(t, tt.content)); err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := NewManager(writeConfig(t, "ocr: [\n")); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestManager_Set(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	if err := mgr.Set("ocr.workers", 4); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if mgr.Get().OCR.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", mgr.Get().OCR.Workers)
	}

	if err := mgr.Set("raster.dpi", -1); err == nil {
		t.Error("expected validation error")
	}
	if mgr.Get().Raster.DPI != 216 {
		t.Errorf("invalid Set should keep previous config, got dpi %d", mgr.Get().Raster.DPI)
	}
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		got, err := cfg.Level()
		if err != nil {
			t.Errorf("Level(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Register multiple callbacks
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Call Get concurrently to verify no race conditions
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.OCR.Workers
			}
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "log_level: info\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.LogLevel)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Wait for the watcher to detect the change (fsnotify is async)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().LogLevel; got != "debug" {
		t.Errorf("config not updated: expected debug, got %s", got)
	}
	if v := lastValue.Load(); v != "debug" {
		t.Errorf("callback received wrong value: expected debug, got %v", v)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", FileName)
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# notas configuration") {
		t.Errorf("missing header:\n%s", data)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if *mgr.Get() != *DefaultConfig() {
		t.Errorf("round trip = %+v, want defaults", mgr.Get())
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "NOTAS_TEST_DOTENV_LANG=eng\nNOTAS_TEST_DOTENV_KEEP=from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NOTAS_TEST_DOTENV_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("NOTAS_TEST_DOTENV_LANG") })

	if err := LoadEnvFile(envFile); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("NOTAS_TEST_DOTENV_LANG"); got != "eng" {
		t.Errorf("expected eng, got %q", got)
	}
	if got := os.Getenv("NOTAS_TEST_DOTENV_KEEP"); got != "from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
}
