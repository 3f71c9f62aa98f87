package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys shared by every log line.
const (
	KeyOperation   = "operation"
	KeySpreadsheet = "spreadsheet_id"
	KeyRange       = "range"
	KeySheet       = "sheet"
	KeyIdentity    = "identity_hash"
	KeyDuration    = "duration"
	KeyStatus      = "status"
	KeyError       = "error"
	KeyTool        = "tool"
)

// Status values. Kept in sync with the instrumentation package by hand since
// instrumentation imports logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithSpreadsheet returns a logger bound to a spreadsheet.
func WithSpreadsheet(logger *slog.Logger, spreadsheetID string) *slog.Logger {
	return logger.With(slog.String(KeySpreadsheet, spreadsheetID))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Spreadsheet(id string) slog.Attr {
	return slog.String(KeySpreadsheet, id)
}

func Range(r string) slog.Attr {
	return slog.String(KeyRange, r)
}

func Sheet(name string) slog.Attr {
	return slog.String(KeySheet, name)
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Identity returns the hashed service account identity.
func Identity(email string) slog.Attr {
	return slog.String(KeyIdentity, AnonymizeEmail(email))
}

// Err returns an error attribute. A nil error yields an empty group, which
// slog drops, so Err(maybeNil) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail hashes an email so log lines can be correlated without
// exposing the address.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(email)))
	return "sa:" + hex.EncodeToString(hash[:8])
}

// SanitizeKey masks private key material. Only the length is reported.
func SanitizeKey(key string) string {
	if key == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[key:%d bytes]", len(key))
}

// NewLogger builds the process logger. Output goes to stderr so stdio
// transports keep stdout for protocol traffic.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
