// Package commands provides CLI commands for trito.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/trito/internal/config"
	"github.com/diogo/trito/internal/logging"
)

var (
	// Global flags
	providerFlag string
	modelFlag    string
	verboseFlag  bool
	logFileFlag  string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// NewRootCmd creates the trito command tree around deps.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trito",
		Short: "Retail fashion consultant chat",
		Long: `trito puts a salesperson in conversation with an AI fashion consultant.
The session is gated by an access password; once it opens, every message
is answered with clothing and accessory suggestions for the client being
served.

Examples:
  trito                         Start a session (TUI in a terminal, REPL otherwise)
  trito chat                    Start the TUI
  trito repl                    Start the line-mode REPL
  trito --provider gemini       Use Gemini for this run
  trito config init             Write default config and secrets files
  echo senha | trito repl       Log in from stdin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, deps)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = deps.logger().Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "trito %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runSession(cmd.Context(), deps, modeAuto)
		},
	}

	cmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "",
		fmt.Sprintf("Completion provider (%v)", config.AvailableProviders()))
	cmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (provider default if empty)")
	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Log at debug level")
	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Log file path, or stderr (default ~/.trito/trito.log)")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps))
	cmd.AddCommand(NewREPLCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatCLIError(err))
		stop()
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, deps *Dependencies) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	deps.Config = applyFlags(cmd, cfg)

	logPath := logFileFlag
	if logPath == "" {
		if logPath, err = config.GetLogPath(); err != nil {
			return err
		}
	}

	logger, err := logging.New(logging.Options{Path: logPath, Verbose: deps.Config.Verbose})
	if err != nil {
		return err
	}
	deps.Logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

// applyFlags overrides file values with flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = providerFlag
	}
	if flags.Changed("model") {
		cfg.Model = modelFlag
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verboseFlag
	}
	return cfg
}
