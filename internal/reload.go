package internal

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	pkgconfig "github.com/starford/marca/pkg/config"
)

const reloadDebounce = 200 * time.Millisecond

// ConfigWatcher reloads the configuration file when it changes on disk.
type ConfigWatcher struct {
	path   string
	w      *fsnotify.Watcher
	logger *slog.Logger
}

// NewConfigWatcher starts watching the directory that holds path. Editors
// commonly replace files by rename, so the file itself is not watched.
func NewConfigWatcher(path string, logger *slog.Logger) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &ConfigWatcher{path: abs, w: w, logger: logger}, nil
}

// Run processes file events until ctx is cancelled. Bursts of events are
// coalesced; after the last one the file is reloaded and, if it parses and
// validates, handed to apply. A bad file is logged and the previous
// configuration stays in effect.
func (cw *ConfigWatcher) Run(ctx context.Context, apply func(*Config)) error {
	defer cw.w.Close()

	cw.logger.Info("config watcher: started", slog.String("path", cw.path))

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			cw.logger.Info("config watcher: stopped")
			return nil

		case <-timerCh:
			timerCh = nil
			cfg := NewDefaultConfig()
			if err := pkgconfig.Load(cw.path, cfg); err != nil {
				cw.logger.Warn("config watcher: reload rejected", slog.String("error", err.Error()))
				continue
			}
			apply(cfg)
			cw.logger.Info("config watcher: reloaded", slog.String("path", cw.path))

		case ev, ok := <-cw.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerCh = timer.C

		case err, ok := <-cw.w.Errors:
			if !ok {
				return nil
			}
			cw.logger.Error("config watcher: error", slog.String("error", err.Error()))
		}
	}
}
