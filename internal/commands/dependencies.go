package commands

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/trito/internal/api"
	"github.com/diogo/trito/internal/config"
	"github.com/diogo/trito/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsTerminal and StdoutIsTerminal decide between the TUI and the
	// line-mode REPL, and how the REPL reads the password.
	StdinIsTerminal  func() bool
	StdoutIsTerminal func() bool

	// ReadPassword reads one line from the terminal without echo.
	ReadPassword func() ([]byte, error)

	// NewCompleter builds the process-wide completer.
	NewCompleter func(ctx context.Context, cfg config.Config, secrets config.Secrets, logger *zap.Logger) (api.Completer, error)

	// RunTUI runs the chat TUI for one session.
	RunTUI func(ctx context.Context, s tui.ChatSession, opts tui.Options) error

	// Config and Logger are filled in before a command runs.
	Config config.Config
	Logger *zap.Logger
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		StdinIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		StdoutIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		ReadPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
		NewCompleter: api.New,
		RunTUI:       tui.Run,
		Config:       config.DefaultConfig(),
		Logger:       zap.NewNop(),
	}
}

func (d *Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
