package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teemow/sheetgate/internal/config"
	"github.com/teemow/sheetgate/internal/google"
	"github.com/teemow/sheetgate/internal/logging"
	"github.com/teemow/sheetgate/internal/sheets"
	"github.com/teemow/sheetgate/internal/tools/common"
)

// clientFlags are shared by the commands that talk to a spreadsheet.
type clientFlags struct {
	debug               bool
	spreadsheetID       string
	serviceAccountEmail string
	privateKeyFile      string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&f.spreadsheetID, "spreadsheet-id", "", "Spreadsheet ID (env: SHEETGATE_SPREADSHEET_ID)")
	cmd.Flags().StringVar(&f.serviceAccountEmail, "service-account-email", "", "Service account email (env: GOOGLE_SERVICE_ACCOUNT_EMAIL)")
	cmd.Flags().StringVar(&f.privateKeyFile, "private-key-file", "", "PEM private key or service account JSON key file (env: GOOGLE_SERVICE_ACCOUNT_KEY_FILE)")
}

func (f *clientFlags) config() (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	return cfg.Merge(config.Config{
		SpreadsheetID:       f.spreadsheetID,
		ServiceAccountEmail: f.serviceAccountEmail,
		PrivateKeyFile:      f.privateKeyFile,
	}), nil
}

// newCLIClient builds the client used by the CLI commands. Tests replace it.
var newCLIClient = func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sheets.Client, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	return sheets.NewServiceAccountClient(ctx, cfg.SpreadsheetID, creds, google.CredentialConfig{},
		sheets.WithLogger(logger))
}

func (f *clientFlags) client(ctx context.Context) (*sheets.Client, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	return newCLIClient(ctx, cfg, logging.NewLogger(f.debug))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readRows parses --rows. "-" reads the JSON from stdin.
func readRows(cmd *cobra.Command, raw string) ([]sheets.Row, error) {
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from stdin: %w", err)
		}
		raw = string(data)
	}
	return common.ParseRows(raw)
}

func newGetCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "get RANGE",
		Short: "Print the formatted values of a range as JSON",
		Example: `  sheetgate get 'Sheet1!A1:C10'
  sheetgate get Sheet1 --spreadsheet-id 1AbC...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := flags.client(ctx)
			if err != nil {
				return err
			}
			rows, err := client.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	flags.register(cmd)
	return cmd
}

// updateOutput mirrors the MCP tool result.
type updateOutput struct {
	UpdatedCells *int64 `json:"updated_cells"`
}

func newUpdateCmd() *cobra.Command {
	var (
		flags clientFlags
		rows  string
	)

	cmd := &cobra.Command{
		Use:     "update RANGE",
		Short:   "Overwrite a range with rows given as JSON",
		Example: `  sheetgate update 'Sheet1!A1:B2' --rows '[["Name","Qty"],["apples",3]]'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readRows(cmd, rows)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client, err := flags.client(ctx)
			if err != nil {
				return err
			}
			updated, err := client.Update(ctx, args[0], values)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), updateOutput{UpdatedCells: updated})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&rows, "rows", "", `Rows as a JSON array of arrays, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("rows")
	return cmd
}

func newAppendCmd() *cobra.Command {
	var (
		flags clientFlags
		rows  string
	)

	cmd := &cobra.Command{
		Use:     "append RANGE",
		Short:   "Append rows given as JSON after the last populated row",
		Example: `  echo '[["pears",5]]' | sheetgate append 'Sheet1!A:B' --rows -`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readRows(cmd, rows)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			client, err := flags.client(ctx)
			if err != nil {
				return err
			}
			updated, err := client.Append(ctx, args[0], values)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), updateOutput{UpdatedCells: updated})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&rows, "rows", "", `Rows as a JSON array of arrays, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("rows")
	return cmd
}

func newSheetsCmd() *cobra.Command {
	var (
		flags       clientFlags
		includeData bool
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List the sheet tabs of the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := flags.client(ctx)
			if err != nil {
				return err
			}
			infos, err := client.ListSheets(ctx, includeData)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), infos)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&includeData, "data", false, "Include each sheet's cell values")
	return cmd
}

func newCreateSheetCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "create-sheet NAME",
		Short: "Create a sheet tab with a frozen header row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := flags.client(ctx)
			if err != nil {
				return err
			}
			info, err := client.CreateSheet(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
	flags.register(cmd)
	return cmd
}
