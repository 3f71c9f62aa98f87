// Package logging provides structured logging helpers for sheetgate.
//
// All logging goes through log/slog. This package only standardizes attribute
// names and keeps credentials out of log output:
//
//	logger := logging.WithOperation(slog.Default(), "sheets.get")
//	logger.Info("values fetched",
//	    logging.Spreadsheet(id),
//	    logging.Range("Sheet1!A1:B2"),
//	    logging.Status(logging.StatusSuccess))
//
// Service-account identities are hashed with AnonymizeEmail and private keys
// are reduced to a length marker by SanitizeKey; neither is ever logged raw.
package logging
