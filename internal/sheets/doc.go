// Package sheets is the authorization-gated client for the Google Sheets v4
// API.
//
// A Client owns one service-account credential and one Gate. The gate runs
// the credential handshake at most once per client, no matter how many
// operations race ahead of it, and every operation waits for that handshake
// before its own remote call. Remote replies are shaped by the normalizer
// into RangeResult, SheetInfo and update counts with fixed defaults for
// absent fields.
//
// Errors fall into three kinds:
//
//   - *ConfigurationError: identity or private key missing, before any I/O
//   - *AuthorizationError: the handshake failed; the next call retries it
//   - *RemoteServiceError: the operation failed after authorization
package sheets
