package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// ErrNotAuthorized is returned by the credential's token source when it is
// used before a handshake has succeeded.
var ErrNotAuthorized = errors.New("credential has not completed the authorization handshake")

// ConfigurationError reports a credential that cannot be constructed from the
// supplied configuration. It is raised before any network activity.
type ConfigurationError struct {
	Field  string // configuration field at fault (e.g. "identity", "private key")
	Reason string
	Err    error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Unwrap returns the underlying cause, if any
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// CredentialConfig is the identity/key pair supplied by the configuration
// collaborator. Either field may be empty; ResolveCredential rejects that.
type CredentialConfig struct {
	Identity   string
	PrivateKey string
}

// Merge returns c with every non-empty field of override applied on top.
func (c CredentialConfig) Merge(override CredentialConfig) CredentialConfig {
	if override.Identity != "" {
		c.Identity = override.Identity
	}
	if override.PrivateKey != "" {
		c.PrivateKey = override.PrivateKey
	}
	return c
}

// Credential is a scoped, unauthenticated service-account credential.
// Identity, key and scope never change after construction; only the token
// cache is populated by the first successful Authorize.
type Credential struct {
	identity   string
	privateKey []byte
	scope      string
	tokenURL   string
	httpClient *http.Client

	source atomic.Pointer[oauth2.TokenSource]
}

// CredentialOption customizes a Credential at construction time.
type CredentialOption func(*Credential)

// WithTokenURL overrides the OAuth2 token endpoint used for the handshake.
func WithTokenURL(url string) CredentialOption {
	return func(c *Credential) {
		c.tokenURL = url
	}
}

// WithHTTPClient sets the HTTP client used to reach the token endpoint.
func WithHTTPClient(client *http.Client) CredentialOption {
	return func(c *Credential) {
		c.httpClient = client
	}
}

// ResolveCredential builds a credential for identity and privateKey limited to
// scope. It fails with *ConfigurationError when identity or privateKey is
// empty, or when the key is not a PEM-encoded RSA private key.
func ResolveCredential(identity, privateKey, scope string, opts ...CredentialOption) (*Credential, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, &ConfigurationError{Field: "identity", Reason: "is required"}
	}

	key := normalizePrivateKey(privateKey)
	if key == "" {
		return nil, &ConfigurationError{Field: "private key", Reason: "is required"}
	}
	if _, err := gojwt.ParseRSAPrivateKeyFromPEM([]byte(key)); err != nil {
		return nil, &ConfigurationError{Field: "private key", Reason: "is not a valid PEM-encoded RSA key", Err: err}
	}

	if scope == "" {
		scope = DriveScope
	}

	c := &Credential{
		identity:   identity,
		privateKey: []byte(key),
		scope:      scope,
		tokenURL:   google.JWTTokenURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Resolve merges override on top of cfg and resolves a DriveScope credential.
// Overrides win whenever they are non-empty.
func Resolve(cfg, override CredentialConfig, opts ...CredentialOption) (*Credential, error) {
	merged := cfg.Merge(override)
	return ResolveCredential(merged.Identity, merged.PrivateKey, DriveScope, opts...)
}

// Identity returns the service account email the credential signs for.
func (c *Credential) Identity() string {
	return c.identity
}

// Scope returns the OAuth scope requested by the credential.
func (c *Credential) Scope() string {
	return c.scope
}

// Authorized reports whether a handshake has completed on this credential.
func (c *Credential) Authorized() bool {
	return c.source.Load() != nil
}

// Authorize performs the handshake: it signs a JWT assertion and exchanges it
// for an access token. Every call issues a fresh exchange; callers that need
// at-most-once semantics wrap it in a gate.
//
// When ctx ends first, Authorize returns ctx.Err() unwrapped and the pending
// token request is cancelled with it.
func (c *Credential) Authorize(ctx context.Context) error {
	conf := c.jwtConfig()

	type exchange struct {
		token *oauth2.Token
		err   error
	}
	done := make(chan exchange, 1)
	go func() {
		// jwt.Config posts without a request context, so the transport
		// attaches ctx to every request it sends.
		token, err := conf.TokenSource(c.exchangeContext(ctx)).Token()
		done <- exchange{token: token, err: err}
	}()

	var res exchange
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to exchange service account assertion for %s: %w", c.identity, res.err)
	}

	// Refreshes must outlive the context of the call that triggered the handshake.
	src := oauth2.ReuseTokenSource(res.token, conf.TokenSource(c.exchangeContext(context.Background())))
	c.source.Store(&src)
	return nil
}

// TokenSource returns a token source backed by the handshake token. Tokens
// requested before Authorize has succeeded fail with ErrNotAuthorized.
func (c *Credential) TokenSource() oauth2.TokenSource {
	return credentialTokenSource{c}
}

func (c *Credential) jwtConfig() *jwt.Config {
	return &jwt.Config{
		Email:      c.identity,
		PrivateKey: c.privateKey,
		Scopes:     []string{c.scope},
		Subject:    c.identity,
		TokenURL:   c.tokenURL,
	}
}

// exchangeContext returns the context handed to the jwt token source. Its
// HTTP client binds every token request to ctx.
func (c *Credential) exchangeContext(ctx context.Context) context.Context {
	client := &http.Client{Transport: contextTransport{ctx: ctx, base: http.DefaultTransport}}
	if c.httpClient != nil {
		client.Timeout = c.httpClient.Timeout
		if c.httpClient.Transport != nil {
			client.Transport = contextTransport{ctx: ctx, base: c.httpClient.Transport}
		}
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// contextTransport sends each request with ctx attached.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

type credentialTokenSource struct {
	c *Credential
}

func (s credentialTokenSource) Token() (*oauth2.Token, error) {
	src := s.c.source.Load()
	if src == nil {
		return nil, ErrNotAuthorized
	}
	return (*src).Token()
}

// normalizePrivateKey expands literal "\n" sequences, which appear when a PEM
// block is stored in a single-line environment variable.
func normalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.Contains(key, `\n`) {
		key = strings.ReplaceAll(key, `\n`, "\n")
	}
	return key
}
