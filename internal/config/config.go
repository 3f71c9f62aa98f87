// Package config loads sheetgate settings from a TOML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	oauthgoogle "golang.org/x/oauth2/google"

	"github.com/teemow/sheetgate/internal/google"
)

// Environment variables read by Load.
const (
	EnvServiceAccountEmail = "GOOGLE_SERVICE_ACCOUNT_EMAIL"
	EnvPrivateKey          = "GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY"
	EnvKeyFile             = "GOOGLE_SERVICE_ACCOUNT_KEY_FILE"
	EnvSpreadsheetID       = "SHEETGATE_SPREADSHEET_ID"
)

const (
	appDirName     = "sheetgate"
	configFileName = "config.toml"
)

// Config holds the settings the client needs. Missing values are not an
// error here; the credential resolver rejects them.
type Config struct {
	SpreadsheetID       string `toml:"spreadsheet_id"`
	ServiceAccountEmail string `toml:"service_account_email"`
	PrivateKey          string `toml:"private_key"`
	// PrivateKeyFile is a PEM file or a service account JSON key.
	PrivateKeyFile string `toml:"private_key_file"`
}

// DefaultPath returns $XDG_CONFIG_HOME/sheetgate/config.toml, falling back
// to the platform config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine config directory: %w", err)
		}
	}
	return filepath.Join(dir, appDirName, configFileName), nil
}

// Load reads path (or DefaultPath when empty) and applies environment
// variables on top. A missing default file is fine; a missing explicit
// path is not.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg = cfg.Merge(FromEnv())
	return cfg, nil
}

// FromEnv returns the settings present in the environment.
func FromEnv() Config {
	return Config{
		SpreadsheetID:       os.Getenv(EnvSpreadsheetID),
		ServiceAccountEmail: os.Getenv(EnvServiceAccountEmail),
		PrivateKey:          os.Getenv(EnvPrivateKey),
		PrivateKeyFile:      os.Getenv(EnvKeyFile),
	}
}

// Merge returns c with every non-empty field of override applied.
// PrivateKey and PrivateKeyFile are one setting: an override that names
// either replaces both, so a key file given on the command line beats an
// inline key from the environment.
func (c Config) Merge(override Config) Config {
	if override.SpreadsheetID != "" {
		c.SpreadsheetID = override.SpreadsheetID
	}
	if override.ServiceAccountEmail != "" {
		c.ServiceAccountEmail = override.ServiceAccountEmail
	}
	if override.PrivateKey != "" || override.PrivateKeyFile != "" {
		c.PrivateKey = override.PrivateKey
		c.PrivateKeyFile = override.PrivateKeyFile
	}
	return c
}

// Credentials returns the identity and key pair. Within one layer an inline
// key wins over PrivateKeyFile. A JSON key file also supplies the identity when none is
// configured.
func (c Config) Credentials() (google.CredentialConfig, error) {
	creds := google.CredentialConfig{
		Identity:   c.ServiceAccountEmail,
		PrivateKey: c.PrivateKey,
	}
	if creds.PrivateKey != "" || c.PrivateKeyFile == "" {
		return creds, nil
	}

	data, err := os.ReadFile(c.PrivateKeyFile)
	if err != nil {
		return google.CredentialConfig{}, fmt.Errorf("failed to read key file %s: %w", c.PrivateKeyFile, err)
	}

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		creds.PrivateKey = string(data)
		return creds, nil
	}

	jwtConfig, err := oauthgoogle.JWTConfigFromJSON(data)
	if err != nil {
		return google.CredentialConfig{}, fmt.Errorf("failed to parse service account key %s: %w", c.PrivateKeyFile, err)
	}
	creds.PrivateKey = string(jwtConfig.PrivateKey)
	if strings.TrimSpace(creds.Identity) == "" {
		creds.Identity = jwtConfig.Email
	}
	return creds, nil
}

// Save writes c to path as TOML, creating the directory if needed.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
