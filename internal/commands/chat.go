package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/trito/internal/chat"
	"github.com/diogo/trito/internal/config"
	apperrors "github.com/diogo/trito/internal/errors"
	"github.com/diogo/trito/internal/render"
	"github.com/diogo/trito/internal/session"
	"github.com/diogo/trito/internal/tui"
)

type sessionMode int

const (
	modeAuto sessionMode = iota
	modeTUI
	modeREPL
)

// NewChatCmd creates the chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start the full-screen chat. The first screen asks for the access
password; after that every message goes to the consultant.

Type /reset to start over with a new client, /retry after a failed reply,
/copy to copy the last reply, /export to save a transcript, and /exit
or Esc to quit. Esc during a pending reply cancels it instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), deps, modeTUI)
		},
	}
}

// NewREPLCmd creates the line-mode command
func NewREPLCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start a line-mode chat session",
		Long: `Start a plain line-oriented chat, for pipes and dumb terminals.
The password is read without echo from a terminal, or as the first line
of stdin otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), deps, modeREPL)
		},
	}
}

// runSession builds the completer and a one-session registry, then hands
// the session to the TUI or the REPL.
func runSession(ctx context.Context, deps *Dependencies, mode sessionMode) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := deps.Config
	logger := deps.logger()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}
	if secrets.Password == "" {
		return apperrors.ErrNoSecret
	}

	completer, err := deps.NewCompleter(ctx, cfg, secrets, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s completer: %w", cfg.Provider, err)
	}

	registry := session.NewRegistry(secrets.Password, completer,
		session.WithLogger(logger),
		session.WithChatOptions(chat.WithProvider(completer.Name())),
	)

	s := registry.Open()
	defer func() {
		if err := registry.Close(s.ID()); err != nil {
			logger.Warn("failed to close session", zap.Error(err))
		}
	}()

	transcriptDir, err := config.GetTranscriptDir(cfg)
	if err != nil {
		return err
	}

	opts := tui.Options{
		Provider:        completer.Name(),
		Model:           cfg.Model,
		CopyToClipboard: cfg.CopyToClipboard,
		TranscriptDir:   transcriptDir,
		Render:          render.OptionsFromConfig(cfg.Markdown),
	}

	if mode == modeAuto {
		mode = modeREPL
		if deps.StdinIsTerminal() && deps.StdoutIsTerminal() {
			mode = modeTUI
		}
	}

	logger.Debug("session starting", zap.Bool("tui", mode == modeTUI))
	if mode == modeTUI {
		return deps.RunTUI(ctx, s, opts)
	}
	return runREPL(ctx, s, deps, opts)
}

// formatCLIError renders err for the terminal, with a hint for setup
// failures the user can fix.
func formatCLIError(err error) string {
	out := tui.FormatError(err)
	switch {
	case errors.Is(err, apperrors.ErrNoSecret):
		out += "\n  Hint: set password in ~/.trito/secrets.yaml (see 'trito config init') or export " + config.EnvPassword
	case errors.Is(err, apperrors.ErrMissingAPIKey):
		out += fmt.Sprintf("\n  Hint: set the provider key in ~/.trito/secrets.yaml or export %s / %s",
			config.EnvOpenAIAPIKey, config.EnvGeminiAPIKey)
	}
	return out
}
