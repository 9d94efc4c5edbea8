// Package app constructs cliphist's services in dependency order and tears
// them down in reverse.
//
// Startup: config provider, data directory, store, history engine. Listen
// adds the clipboard backend and attaches the engine to it. Close runs the
// engine shutdown (final save included) before the store is closed.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yiblet/cliphist/internal/broadcast"
	"github.com/yiblet/cliphist/internal/clipboard"
	"github.com/yiblet/cliphist/internal/clipboard/nativeboard"
	"github.com/yiblet/cliphist/internal/clipboard/sysboard"
	"github.com/yiblet/cliphist/internal/config"
	"github.com/yiblet/cliphist/internal/datadir"
	"github.com/yiblet/cliphist/internal/history"
	"github.com/yiblet/cliphist/internal/store"
	"github.com/yiblet/cliphist/internal/store/dbstore"
	"github.com/yiblet/cliphist/internal/store/filestore"
)

// Clipboard backend names.
const (
	BackendAuto   = "auto"
	BackendNative = "native"
	BackendSystem = "system"
)

// Options configures New.
type Options struct {
	// Config manages the config file. Nil means the default location.
	Config *config.ConfigManager

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// EngineOptions are appended after the options derived from config.
	EngineOptions []history.Option

	// LockHistory takes the data directory's watch lock before the history
	// is loaded and holds it until Close. New fails with datadir.ErrLocked
	// while another App holds it.
	LockHistory bool
}

// App owns every long-lived service.
type App struct {
	Provider  *config.Provider
	Dir       *datadir.Dir
	Store     store.HistoryStore
	Engine    *history.Engine
	Clipboard clipboard.Clipboard

	logger    *slog.Logger
	lock      *datadir.Lock
	closeOnce sync.Once
	closeErr  error
}

// New loads the configuration, opens the configured store and starts the
// history engine. It does not touch the clipboard.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cm := opts.Config
	if cm == nil {
		var err error
		if cm, err = config.NewConfigManager(); err != nil {
			return nil, err
		}
	}

	a := &App{logger: logger}
	a.Provider = config.NewProvider(cm, logger)
	cfg := a.Provider.Config()

	dir, err := datadir.Resolve(cfg.HistoryLocation)
	if err != nil {
		return nil, err
	}
	a.Dir = dir

	if opts.LockHistory {
		if a.lock, err = dir.TryLock(); err != nil {
			return nil, err
		}
	}

	a.Store, err = OpenStore(cfg.Store, dir)
	if err != nil {
		a.Close()
		return nil, err
	}

	engineOpts := append([]history.Option{
		history.WithLogger(logger),
		history.WithDelay(cfg.SaveDelay),
		history.WithPreviewLength(cfg.PreviewLength),
		history.WithMaxTextLength(cfg.MaxTextLength),
	}, opts.EngineOptions...)
	a.Engine = history.New(a.Store, a.Provider, engineOpts...)

	a.Provider.OnChange(func(c config.Config) {
		a.Engine.SetSaveDelay(c.SaveDelay)
		a.Engine.SetPreviewLength(c.PreviewLength)
		a.Engine.SetMaxTextLength(c.MaxTextLength)
	})

	logger.Debug("application started", "store", cfg.Store, "dir", dir.Root(), "max_items", cfg.MaxItems)
	return a, nil
}

// OpenStore opens the named persistence backend inside dir.
func OpenStore(kind string, dir *datadir.Dir) (store.HistoryStore, error) {
	switch kind {
	case config.StoreJSON, "":
		return filestore.New(dir.Path(filestore.FileName)), nil
	case config.StoreSQLite:
		s, err := dbstore.NewSQLiteStore(dir.Path(dbstore.FileName))
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store: %s", kind)
	}
}

// OpenClipboard returns the named clipboard backend. The auto backend
// prefers the native clipboard and falls back to the system tools.
func OpenClipboard(backend string, logger *slog.Logger) (clipboard.Clipboard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case BackendNative:
		return nativeboard.New()
	case BackendSystem:
		return openSystem()
	case BackendAuto, "":
		native, err := nativeboard.New()
		if err == nil {
			return native, nil
		}
		logger.Info("native clipboard unavailable, using system tools", "err", err)
		return openSystem()
	default:
		return nil, fmt.Errorf("unknown clipboard backend: %s", backend)
	}
}

func openSystem() (clipboard.Clipboard, error) {
	sys := sysboard.New()
	if !sys.IsSupported() {
		return nil, errors.New("no clipboard tool found (install xclip or xsel)")
	}
	return sys, nil
}

// UseClipboard sets the backend without attaching to it.
func (a *App) UseClipboard(c clipboard.Clipboard) {
	a.Clipboard = c
}

// Listen attaches the engine to c so that clipboard changes are recorded.
func (a *App) Listen(c clipboard.Clipboard) error {
	a.Clipboard = c
	if err := a.Engine.Attach(c); err != nil {
		return fmt.Errorf("failed to listen to clipboard: %w", err)
	}
	a.logger.Info("listening to clipboard", "dir", a.Dir.Root())
	return nil
}

// Snapshot returns the current history previews.
func (a *App) Snapshot() broadcast.Snapshot {
	return a.Engine.Snapshot()
}

// DeleteAt removes the entry at index.
func (a *App) DeleteAt(index int) {
	a.Engine.DeleteAt(index)
}

// Clear removes every entry.
func (a *App) Clear() {
	a.Engine.Clear()
}

// CopyBack places the entry at index on the clipboard without recording it
// again.
func (a *App) CopyBack(index int) (history.Entry, error) {
	if a.Clipboard == nil {
		return history.Entry{}, errors.New("no clipboard available")
	}
	entries := a.Engine.List()
	if index < 0 || index >= len(entries) {
		return history.Entry{}, fmt.Errorf("index %d out of range (history has %d entries)", index, len(entries))
	}
	entry := entries[index]
	if err := clipboard.CopyBack(a.Engine, a.Clipboard, entry.Text); err != nil {
		return history.Entry{}, err
	}
	return entry, nil
}

// Run watches the config file and runs view until view returns or ctx is
// done. A config watcher that cannot start is logged, not fatal.
func (a *App) Run(ctx context.Context, view func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.Provider.Watch(gctx); err != nil {
			a.logger.Warn("config reload disabled", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return view(gctx)
	})
	return g.Wait()
}

// Close shuts the engine down, which writes any unsaved history, closes the
// store and then releases the watch lock. Safe to call more than once and on a partially
// constructed App.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.closeOnce.Do(func() {
		a.Engine.Shutdown()
		if a.Store != nil {
			a.closeErr = a.Store.Close()
		}
		if a.lock != nil {
			a.closeErr = errors.Join(a.closeErr, a.lock.Unlock())
		}
		a.logger.Debug("application stopped")
	})
	return a.closeErr
}
