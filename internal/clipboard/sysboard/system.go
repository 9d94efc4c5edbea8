// Package sysboard implements the clipboard with platform commands.
// On macOS it uses pbcopy/pbpaste, on Linux xclip with xsel as a fallback.
// These tools have no change notification, so Watch polls.
package sysboard

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// DefaultPollInterval is how often Watch samples the clipboard.
const DefaultPollInterval = 250 * time.Millisecond

// command is one read/write tool pair.
type command struct {
	read  []string
	write []string
}

// commandsFor lists the tools to try on goos, in preference order.
func commandsFor(goos string) []command {
	switch goos {
	case "darwin":
		return []command{{read: []string{"pbpaste"}, write: []string{"pbcopy"}}}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []command{
			{read: []string{"xclip", "-selection", "clipboard", "-o"}, write: []string{"xclip", "-selection", "clipboard"}},
			{read: []string{"xsel", "--clipboard", "--output"}, write: []string{"xsel", "--clipboard", "--input"}},
		}
	default:
		return nil
	}
}

// SystemClipboard implements the clipboard using system commands
type SystemClipboard struct {
	commands     []command
	pollInterval time.Duration
	logger       *slog.Logger
}

// New creates a SystemClipboard for the running OS.
func New() *SystemClipboard {
	return &SystemClipboard{
		commands:     commandsFor(runtime.GOOS),
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
}

// WithPollInterval sets how often Watch samples the clipboard.
func (s *SystemClipboard) WithPollInterval(d time.Duration) *SystemClipboard {
	if d > 0 {
		s.pollInterval = d
	}
	return s
}

// IsSupported returns true if at least one complete tool pair is installed.
func (s *SystemClipboard) IsSupported() bool {
	for _, c := range s.commands {
		if installed(c.read[0]) && installed(c.write[0]) {
			return true
		}
	}
	return false
}

// Read streams the clipboard from the first tool that starts.
func (s *SystemClipboard) Read() (io.ReadCloser, error) {
	if len(s.commands) == 0 {
		return nil, fmt.Errorf("clipboard operations not supported on %s", runtime.GOOS)
	}

	var lastErr error
	for _, c := range s.commands {
		reader, err := readWithCommand(c.read[0], c.read[1:]...)
		if err == nil {
			return reader, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to read clipboard: %w", lastErr)
}

// Write feeds r to the first tool that succeeds. r is buffered so a
// fallback tool sees the full content.
func (s *SystemClipboard) Write(r io.Reader) error {
	if len(s.commands) == 0 {
		return fmt.Errorf("clipboard operations not supported on %s", runtime.GOOS)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var lastErr error
	for _, c := range s.commands {
		lastErr = writeWithCommand(bytes.NewReader(data), c.write[0], c.write[1:]...)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to write clipboard: %w", lastErr)
}

// Watch polls the clipboard and signals when its content hash changes.
// The content present when Watch starts is the baseline, not a change.
func (s *SystemClipboard) Watch(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)

		last, _ := s.digest()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sum, err := s.digest()
				if err != nil {
					s.logger.Debug("clipboard poll failed", "err", err)
					continue
				}
				if sum == last {
					continue
				}
				last = sum
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out
}

func (s *SystemClipboard) digest() ([sha256.Size]byte, error) {
	rc, err := s.Read()
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	defer rc.Close()

	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return [sha256.Size]byte{}, err
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

func installed(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// cmdReadCloser wraps a command's stdout and ensures the command is waited on when closed
type cmdReadCloser struct {
	stdout io.ReadCloser
	cmd    *exec.Cmd
}

func (c *cmdReadCloser) Read(p []byte) (n int, err error) {
	return c.stdout.Read(p)
}

func (c *cmdReadCloser) Close() error {
	if err := c.stdout.Close(); err != nil {
		c.cmd.Wait()
		return err
	}

	if runtime.GOOS != "windows" {
		c.cmd.Process.Signal(os.Interrupt)
	}
	return c.cmd.Wait()
}

// readWithCommand starts a command and returns its output as a stream
func readWithCommand(name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.Command(name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &cmdReadCloser{stdout: stdout, cmd: cmd}, nil
}

// writeWithCommand executes a command with r as stdin
func writeWithCommand(r io.Reader, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = r

	return cmd.Run()
}
