package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/sheetgate/internal/config"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(config.EnvSpreadsheetID, "")
	t.Setenv(config.EnvServiceAccountEmail, "")
	t.Setenv(config.EnvPrivateKey, "")
	t.Setenv(config.EnvKeyFile, "")
	return filepath.Join(dir, "sheetgate", "config.toml")
}

func TestConfigInitCommand(t *testing.T) {
	path := isolateConfig(t)
	keyFile := filepath.Join(t.TempDir(), "sa.json")

	var out bytes.Buffer
	cmd := newConfigCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init",
		"--spreadsheet-id", "sheet-1",
		"--service-account-email", "robot@example.com",
		"--private-key-file", keyFile,
	})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Wrote "+path+"\n", out.String())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Config{
		SpreadsheetID:       "sheet-1",
		ServiceAccountEmail: "robot@example.com",
		PrivateKeyFile:      keyFile,
	}, cfg)
}

func TestConfigInitCommand_RefusesOverwrite(t *testing.T) {
	path := isolateConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(`spreadsheet_id = "keep"`), 0600))

	cmd := newConfigCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", "--spreadsheet-id", "new"})
	assert.ErrorContains(t, cmd.Execute(), "already exists")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "keep", cfg.SpreadsheetID)

	cmd = newConfigCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", "--spreadsheet-id", "new", "--force"})
	require.NoError(t, cmd.Execute())

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "new", cfg.SpreadsheetID)
}

func TestConfigPathCommand(t *testing.T) {
	path := isolateConfig(t)

	var out bytes.Buffer
	cmd := newConfigCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"path"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, path+"\n", out.String())
}
