package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teemow/sheetgate/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the sheetgate config file",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

// configFilePath is --config when given, else the default location.
func configFilePath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

func newConfigInitCmd() *cobra.Command {
	var (
		cfg   config.Config
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file from the given flags",
		Long: `Write a config file holding the spreadsheet ID, service account email
and key file path. The private key itself is never written; point
--private-key-file at a PEM file or a service account JSON key.`,
		Example: `  sheetgate config init --spreadsheet-id 1AbC... --private-key-file ~/keys/sa.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to check config file %s: %w", path, err)
				}
			}

			if cfg.PrivateKeyFile != "" {
				abs, err := filepath.Abs(cfg.PrivateKeyFile)
				if err != nil {
					return fmt.Errorf("failed to resolve key file path: %w", err)
				}
				cfg.PrivateKeyFile = abs
			}

			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.SpreadsheetID, "spreadsheet-id", "", "Default spreadsheet ID")
	cmd.Flags().StringVar(&cfg.ServiceAccountEmail, "service-account-email", "", "Service account email")
	cmd.Flags().StringVar(&cfg.PrivateKeyFile, "private-key-file", "", "PEM private key or service account JSON key file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
