package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/sheetgate/internal/config"
)

// rootCmd represents the base command for the sheetgate application
var rootCmd = &cobra.Command{
	Use:   "sheetgate",
	Short: "Reads and writes Google Sheets with a service account",
	Long: `sheetgate talks to a single Google Sheets spreadsheet using a service
account and returns plain JSON.

It can run as:
  - A CLI for reading, updating and appending ranges
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configPath is the --config flag shared by every subcommand.
var configPath string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "sheetgate version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config (or the default
// location) with environment variables applied.
func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the TOML config file (default $XDG_CONFIG_HOME/sheetgate/config.toml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newAppendCmd())
	rootCmd.AddCommand(newSheetsCmd())
	rootCmd.AddCommand(newCreateSheetCmd())
	rootCmd.AddCommand(newConfigCmd())
}
