package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/yiblet/cliphist/internal/app"
	"github.com/yiblet/cliphist/internal/broadcast"
	"github.com/yiblet/cliphist/internal/clipboard"
	"github.com/yiblet/cliphist/internal/config"
	"github.com/yiblet/cliphist/internal/datadir"
	"github.com/yiblet/cliphist/internal/history"
	"github.com/yiblet/cliphist/internal/logging"
	"github.com/yiblet/cliphist/internal/tui"
)

// titleLength bounds titles printed by list and the copy/delete messages.
const titleLength = 60

// ViewFunc runs an interactive view until it returns or ctx is done.
type ViewFunc func(ctx context.Context, ctrl tui.Controller, updates <-chan broadcast.Snapshot, theme string) error

// ClipboardOpener returns the named clipboard backend.
type ClipboardOpener func(backend string, logger *slog.Logger) (clipboard.Clipboard, error)

// CLI handles the command-line interface
type CLI struct {
	out    io.Writer
	in     io.Reader
	logger *slog.Logger

	openClipboard ClipboardOpener
	runView       ViewFunc
}

// New creates a CLI that prints to stdout, prompts on stdin and logs to
// logger.
func New(logger *slog.Logger) *CLI {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{
		out:           os.Stdout,
		in:            os.Stdin,
		logger:        logger,
		openClipboard: app.OpenClipboard,
		runView:       tui.Run,
	}
}

// Execute runs the CLI command based on parsed arguments. No subcommand
// means watch.
func (c *CLI) Execute(ctx context.Context, args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	switch {
	case args.List != nil:
		return c.executeList(args, args.List)
	case args.Copy != nil:
		return c.executeCopy(args, args.Copy)
	case args.Delete != nil:
		return c.executeDelete(args, args.Delete)
	case args.Clear != nil:
		return c.executeClear(args, args.Clear)
	case args.Config != nil:
		return c.executeConfig(args, args.Config)
	case args.Watch != nil:
		return c.executeWatch(ctx, args, args.Watch)
	default:
		return c.executeWatch(ctx, args, &WatchCmd{Backend: app.BackendAuto})
	}
}

func configManager(args *Args) (*config.ConfigManager, error) {
	if args.ConfigPath != nil {
		return config.NewConfigManagerWithPath(*args.ConfigPath), nil
	}
	return config.NewConfigManager()
}

// openApp builds the application for a one-shot command.
func (c *CLI) openApp(args *Args, logger *slog.Logger) (*app.App, error) {
	cm, err := configManager(args)
	if err != nil {
		return nil, err
	}
	return app.New(app.Options{Config: cm, Logger: logger})
}

// openAppForUpdate builds the application for a command that rewrites the
// history. It refuses while a watch runs, since the watch would write its
// own copy back over the change.
func (c *CLI) openAppForUpdate(args *Args) (*app.App, error) {
	cm, err := configManager(args)
	if err != nil {
		return nil, err
	}
	a, err := app.New(app.Options{Config: cm, Logger: c.logger, LockHistory: true})
	if errors.Is(err, datadir.ErrLocked) {
		return nil, fmt.Errorf("%w; stop it first or use its live view", err)
	}
	return a, err
}

// executeWatch records clipboard changes until the view exits or ctx is
// done. While the live view owns the terminal, logs go to the log file in
// the data directory.
func (c *CLI) executeWatch(ctx context.Context, args *Args, cmd *WatchCmd) error {
	cm, err := configManager(args)
	if err != nil {
		return err
	}

	logger := c.logger
	if !cmd.NoUI {
		cfg, err := cm.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}
		dir, err := datadir.Resolve(cfg.HistoryLocation)
		if err != nil {
			return err
		}
		logFile, err := dir.OpenLog()
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger = logging.Setup(logFile, logging.ParseFormat(args.LogFormat), logging.ParseLevel(args.LogLevel))
	}

	a, err := app.New(app.Options{Config: cm, Logger: logger, LockHistory: true})
	if errors.Is(err, datadir.ErrLocked) {
		return fmt.Errorf("%w; only one watch can record at a time", err)
	}
	if err != nil {
		return err
	}
	defer a.Close()

	board, err := c.openClipboard(cmd.Backend, logger)
	if err != nil {
		return fmt.Errorf("failed to open clipboard: %w", err)
	}
	if err := a.Listen(board); err != nil {
		return err
	}

	if cmd.NoUI {
		fmt.Fprintf(c.out, "Recording clipboard history in %s (ctrl+c to stop)\n", a.Dir.Root())
		return a.Run(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
	}

	sub := a.Engine.Broadcaster().Channel(1)
	defer sub.Cancel()
	theme := a.Provider.Config().Theme
	return a.Run(ctx, func(ctx context.Context) error {
		return c.runView(ctx, a, sub.C, theme)
	})
}

// listedEntry is the JSON form printed by 'list --json'.
type listedEntry struct {
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// executeList handles the 'cliphist list' command
func (c *CLI) executeList(args *Args, cmd *ListCmd) error {
	a, err := c.openApp(args, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	entries := a.Engine.List()

	if cmd.JSON {
		out := make([]listedEntry, len(entries))
		for i, e := range entries {
			out[i] = listedEntry{Index: i, Text: e.Text, Timestamp: e.Timestamp}
		}
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(c.out, "History is empty.")
		return nil
	}

	now := time.Now()
	for i, e := range entries {
		if cmd.Full {
			if i > 0 {
				fmt.Fprintln(c.out)
			}
			fmt.Fprintf(c.out, "[%d] %s\n%s\n", i, e.Timestamp.Format(time.DateTime), e.Text)
			continue
		}
		fmt.Fprintf(c.out, "%2d. %-*s  %s\n", i, titleLength, history.Title(e.Text, titleLength), tui.FormatAge(now, e.Timestamp))
	}
	return nil
}

// executeCopy handles the 'cliphist copy' command
func (c *CLI) executeCopy(args *Args, cmd *CopyCmd) error {
	a, err := c.openApp(args, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	board, err := c.openClipboard(app.BackendAuto, c.logger)
	if err != nil {
		return fmt.Errorf("failed to open clipboard: %w", err)
	}
	a.UseClipboard(board)

	entry, err := a.CopyBack(cmd.Index)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Copied to clipboard: %s\n", history.Title(entry.Text, titleLength))
	return nil
}

// executeDelete handles the 'cliphist delete' command
func (c *CLI) executeDelete(args *Args, cmd *DeleteCmd) error {
	a, err := c.openAppForUpdate(args)
	if err != nil {
		return err
	}
	defer a.Close()

	entries := a.Engine.List()
	if cmd.Index >= len(entries) {
		return fmt.Errorf("index %d out of range (history has %d entries)", cmd.Index, len(entries))
	}
	a.DeleteAt(cmd.Index)

	fmt.Fprintf(c.out, "Deleted: %s\n", history.Title(entries[cmd.Index].Text, titleLength))
	return nil
}

// executeClear handles the 'cliphist clear' command
func (c *CLI) executeClear(args *Args, cmd *ClearCmd) error {
	a, err := c.openAppForUpdate(args)
	if err != nil {
		return err
	}
	defer a.Close()

	count := a.Engine.Len()
	if count == 0 {
		fmt.Fprintln(c.out, "History is already empty.")
		return nil
	}

	// Prompt for confirmation unless --force is used
	if !cmd.Force {
		fmt.Fprintf(c.out, "This will delete %d entries from history. Continue? [y/N]: ", count)
		response, _ := bufio.NewReader(c.in).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(c.out, "Cancelled.")
			return nil
		}
	}

	a.Clear()
	fmt.Fprintf(c.out, "Cleared %d entries from history.\n", count)
	return nil
}

// executeConfig handles the 'cliphist config' command
func (c *CLI) executeConfig(args *Args, cmd *ConfigCmd) error {
	cm, err := configManager(args)
	if err != nil {
		return err
	}

	switch {
	case cmd.Get != nil:
		value, err := cm.Get(cmd.Get.Key)
		if err != nil {
			return fmt.Errorf("failed to get config value: %w", err)
		}
		fmt.Fprintln(c.out, value)
	case cmd.Set != nil:
		if err := cm.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return fmt.Errorf("failed to set config value: %w", err)
		}
		fmt.Fprintf(c.out, "Set %s = %s\n", cmd.Set.Key, cmd.Set.Value)
	case cmd.List != nil:
		values, err := cm.List()
		if err != nil {
			return fmt.Errorf("failed to list config values: %w", err)
		}
		fmt.Fprintf(c.out, "Configuration (%s):\n", cm.GetConfigPath())
		for _, key := range config.Keys {
			fmt.Fprintf(c.out, "  %s = %s\n", key, values[key])
		}
	}
	return nil
}
