package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/trito/internal/config"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize configuration",
		Long: `Inspect and create the files under ~/.trito.

config.json holds provider and display settings; secrets.yaml holds the
access password and provider API keys. Secret values are never printed.`,
		// Config commands must work even when config.json is broken.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			deps.Logger = zap.NewNop()
			return nil
		},
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg = applyFlags(cmd, cfg)

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			secrets, err := config.LoadSecrets()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, string(data))
			fmt.Fprintln(out, secrets.String())
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "warning: %v\n", err)
			}
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the paths trito reads and writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := []struct {
				name string
				get  func() (string, error)
			}{
				{"dir", config.GetConfigDir},
				{"config", config.GetConfigPath},
				{"secrets", config.GetSecretsPath},
				{"log", config.GetLogPath},
			}

			out := cmd.OutOrStdout()
			for _, p := range paths {
				path, err := p.get()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-8s %s\n", p.name, path)
			}
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default config.json and an empty secrets.yaml",
		Long: `Write a default config.json and a secrets.yaml template. Existing files
are kept unless --force is given for config.json; secrets.yaml is never
overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			configPath, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			exists, err := fileExists(configPath)
			if err != nil {
				return err
			}
			if exists && !force {
				fmt.Fprintf(out, "kept     %s\n", configPath)
			} else {
				if err := config.SaveConfig(config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote    %s\n", configPath)
			}

			secretsPath, err := config.GetSecretsPath()
			if err != nil {
				return err
			}
			exists, err = fileExists(secretsPath)
			if err != nil {
				return err
			}
			if exists {
				fmt.Fprintf(out, "kept     %s\n", secretsPath)
				return nil
			}
			if err := config.SaveSecrets(config.Secrets{}); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote    %s\n", secretsPath)
			fmt.Fprintf(out, "Set the access password in %s or export %s.\n", secretsPath, config.EnvPassword)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.json")
	return cmd
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
