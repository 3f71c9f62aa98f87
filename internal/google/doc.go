// Package google resolves service-account credentials for Google APIs.
//
// A Credential is built once from an identity (the service account email) and
// its PEM-encoded private key. Construction performs no network I/O; the
// signed JWT assertion is only exchanged for an access token when Authorize is
// called. After the first successful handshake the credential exposes an
// oauth2.TokenSource that refreshes transparently.
//
// Missing or malformed inputs are reported as *ConfigurationError so callers
// can tell a bad setup apart from a failed handshake.
package google
