package internal

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, path string) <-chan *Config {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cw, err := NewConfigWatcher(path, logger)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	applied := make(chan *Config, 4)
	go cw.Run(ctx, func(cfg *Config) { applied <- cfg })
	return applied
}

func TestConfigWatcher_AppliesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "app:\n  log_level: info\n")
	applied := startWatcher(t, path)

	writeConfig(t, path, "app:\n  log_level: warn\nscoring:\n  active_statuses:\n    - Registro vigente\n    - Sobrestado\n")

	select {
	case cfg := <-applied:
		if cfg.App.LogLevel != slog.LevelWarn {
			t.Errorf("log level = %v, want warn", cfg.App.LogLevel)
		}
		if len(cfg.Scoring.ActiveStatuses) != 2 || cfg.Scoring.ActiveStatuses[1] != "Sobrestado" {
			t.Errorf("active statuses = %v", cfg.Scoring.ActiveStatuses)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not applied")
	}
}

func TestConfigWatcher_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "app:\n  log_level: info\n")
	applied := startWatcher(t, path)

	writeConfig(t, path, "cache:\n  ttl: 0s\n")

	select {
	case cfg := <-applied:
		t.Fatalf("invalid config applied: %+v", cfg.Cache)
	case <-time.After(time.Second):
	}
}

func TestConfigWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "app:\n  log_level: info\n")
	applied := startWatcher(t, path)

	writeConfig(t, filepath.Join(dir, "other.yaml"), "app:\n  log_level: debug\n")

	select {
	case <-applied:
		t.Fatal("change to another file triggered a reload")
	case <-time.After(time.Second):
	}
}
