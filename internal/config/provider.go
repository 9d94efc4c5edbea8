package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yiblet/cliphist/internal/clock"
	"github.com/yiblet/cliphist/internal/debounce"
)

// ReloadDelay coalesces the burst of events editors produce on save.
const ReloadDelay = 200 * time.Millisecond

// Provider serves the live configuration. Values are read fresh on every
// call, so a reload applies to the next caller without a restart.
type Provider struct {
	manager *ConfigManager
	current atomic.Pointer[Config]
	logger  *slog.Logger

	mu        sync.Mutex
	listeners []func(*Config)
}

// NewProvider loads the configuration through cm. An unreadable or invalid
// file is logged and the defaults are served instead.
func NewProvider(cm *ConfigManager, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{manager: cm, logger: logger}

	cfg, err := cm.Load()
	if err != nil {
		logger.Warn("using default configuration", "path", cm.GetConfigPath(), "err", err)
		cfg = DefaultConfig()
	}
	p.current.Store(cfg)
	return p
}

// Config returns a copy of the current configuration.
func (p *Provider) Config() Config {
	return *p.current.Load()
}

// MaxItems returns the current history capacity.
func (p *Provider) MaxItems() int {
	return p.current.Load().MaxItems
}

// Path returns the watched config file.
func (p *Provider) Path() string {
	return p.manager.GetConfigPath()
}

// OnChange registers fn to run after every successful reload.
func (p *Provider) OnChange(fn func(Config)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, func(c *Config) { fn(*c) })
}

// Update sets key through the manager and reloads.
func (p *Provider) Update(key, value string) error {
	if err := p.manager.Update(key, value); err != nil {
		return err
	}
	return p.Reload()
}

// Reload re-reads the file. On failure the previous configuration stays in
// effect and the error is returned.
func (p *Provider) Reload() error {
	cfg, err := p.manager.Load()
	if err != nil {
		return err
	}
	p.current.Store(cfg)
	p.logger.Debug("configuration reloaded", "max_items", cfg.MaxItems, "store", cfg.Store)

	p.mu.Lock()
	listeners := append([]func(*Config){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch reloads the configuration whenever the file changes, until ctx is
// done. The parent directory is watched so that editors replacing the file
// by rename are noticed.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	path := p.Path()
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	p.logger.Debug("watching configuration", "path", path)

	reload := debounce.New(clock.Real(), ReloadDelay, func() {
		if err := p.Reload(); err != nil {
			p.logger.Warn("keeping previous configuration", "err", err)
		}
	})
	defer reload.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				reload.Arm()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("config watcher error", "err", err)
		}
	}
}
