package cli

import (
	"fmt"

	"github.com/yiblet/cliphist/internal/app"
)

// Args represents the top-level command structure
type Args struct {
	ConfigPath *string `arg:"--config" help:"Config file (default ~/.config/cliphist/config.yaml)"`
	LogLevel   string  `arg:"--log-level" default:"info" help:"Log level: debug, info, warn, error"`
	LogFormat  string  `arg:"--log-format" default:"auto" help:"Log format: auto, text, json"`

	Watch  *WatchCmd  `arg:"subcommand:watch" help:"Record clipboard changes and show the live view"`
	List   *ListCmd   `arg:"subcommand:list" help:"Print the stored history"`
	Copy   *CopyCmd   `arg:"subcommand:copy" help:"Copy an entry back to the clipboard"`
	Delete *DeleteCmd `arg:"subcommand:delete" help:"Delete one entry"`
	Clear  *ClearCmd  `arg:"subcommand:clear" help:"Delete every entry"`
	Config *ConfigCmd `arg:"subcommand:config" help:"Manage configuration"`
}

// WatchCmd represents 'cliphist watch'
type WatchCmd struct {
	Backend string `arg:"--backend" default:"auto" help:"Clipboard backend: auto, native, system"`
	NoUI    bool   `arg:"--no-ui" help:"Record without the live view"`
}

// ListCmd represents 'cliphist list'
type ListCmd struct {
	Full bool `arg:"-f,--full" help:"Print the full text of every entry"`
	JSON bool `arg:"--json" help:"Print entries as JSON"`
}

// CopyCmd represents 'cliphist copy'
type CopyCmd struct {
	Index int `arg:"positional,required" help:"History index (0 = most recent)"`
}

// DeleteCmd represents 'cliphist delete'
type DeleteCmd struct {
	Index int `arg:"positional,required" help:"History index (0 = most recent)"`
}

// ClearCmd represents 'cliphist clear'
type ClearCmd struct {
	Force bool `arg:"-f,--force" help:"Skip the confirmation prompt"`
}

// ConfigCmd represents 'cliphist config'
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Get a configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set a configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"List all configuration values"`
}

// ConfigGetCmd represents 'cliphist config get'
type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key"`
}

// ConfigSetCmd represents 'cliphist config set'
type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"Configuration value"`
}

// ConfigListCmd represents 'cliphist config list'
type ConfigListCmd struct{}

// Description returns the program description
func (Args) Description() string {
	return "cliphist - clipboard history with a live terminal view"
}

// Version returns the program version
func (Args) Version() string {
	return "cliphist 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  cliphist                         # Record and browse (same as 'cliphist watch')
  cliphist watch --no-ui           # Record in the background
  cliphist list                    # Show titles, most recent first
  cliphist copy 2                  # Put the third entry back on the clipboard
  cliphist delete 0                # Forget the most recent entry
  cliphist config set max-items 50

For more information, visit: https://github.com/yiblet/cliphist`
}

// HasCommand reports whether a subcommand was given.
func (args *Args) HasCommand() bool {
	return args.Watch != nil || args.List != nil || args.Copy != nil ||
		args.Delete != nil || args.Clear != nil || args.Config != nil
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	switch args.LogFormat {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("log format must be auto, text or json: %q", args.LogFormat)
	}

	switch {
	case args.Watch != nil:
		return args.Watch.Validate()
	case args.List != nil:
		return args.List.Validate()
	case args.Copy != nil:
		return validateIndex(args.Copy.Index)
	case args.Delete != nil:
		return validateIndex(args.Delete.Index)
	case args.Config != nil:
		return args.Config.Validate()
	}
	return nil
}

// Validate validates watch command arguments
func (w *WatchCmd) Validate() error {
	switch w.Backend {
	case app.BackendAuto, app.BackendNative, app.BackendSystem:
		return nil
	default:
		return fmt.Errorf("backend must be auto, native or system: %q", w.Backend)
	}
}

// Validate validates list command arguments
func (l *ListCmd) Validate() error {
	if l.Full && l.JSON {
		return fmt.Errorf("cannot specify both --full and --json")
	}
	return nil
}

// Validate validates config command arguments
func (c *ConfigCmd) Validate() error {
	if c.Get == nil && c.Set == nil && c.List == nil {
		return fmt.Errorf("no config subcommand specified")
	}
	return nil
}

func validateIndex(index int) error {
	if index < 0 {
		return fmt.Errorf("index must be non-negative")
	}
	return nil
}
