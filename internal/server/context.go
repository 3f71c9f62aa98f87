package server

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/teemow/sheetgate/internal/config"
	"github.com/teemow/sheetgate/internal/google"
	"github.com/teemow/sheetgate/internal/instrumentation"
	"github.com/teemow/sheetgate/internal/logging"
	"github.com/teemow/sheetgate/internal/sheets"
)

// ClientFactory builds a sheets client for one spreadsheet.
type ClientFactory func(ctx context.Context, spreadsheetID string) (*sheets.Client, error)

// Options configures a ServerContext.
type Options struct {
	Config      config.Config
	Logger      *slog.Logger
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger

	// ClientFactory defaults to a service account client built from Config.
	ClientFactory ClientFactory
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cfg         config.Config
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	newClient   ClientFactory

	clients  map[string]*sheets.Client
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. No client is built until
// a tool first needs one.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sc := &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		cfg:         opts.Config,
		logger:      logger,
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		newClient:   opts.ClientFactory,
		clients:     make(map[string]*sheets.Client),
	}
	if sc.newClient == nil {
		sc.newClient = sc.serviceAccountClient
	}
	return sc, nil
}

func (sc *ServerContext) serviceAccountClient(ctx context.Context, spreadsheetID string) (*sheets.Client, error) {
	creds, err := sc.cfg.Credentials()
	if err != nil {
		return nil, err
	}
	return sheets.NewServiceAccountClient(ctx, spreadsheetID, creds, google.CredentialConfig{},
		sheets.WithLogger(sc.logger),
		sheets.WithMetrics(sc.metrics))
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// DefaultSpreadsheetID returns the configured spreadsheet ID, if any.
func (sc *ServerContext) DefaultSpreadsheetID() string {
	return sc.cfg.SpreadsheetID
}

// SheetsClient returns the client for spreadsheetID, creating and caching
// it on first use. An empty ID selects the configured default.
func (sc *ServerContext) SheetsClient(spreadsheetID string) (*sheets.Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		spreadsheetID = sc.cfg.SpreadsheetID
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet_id is required (no default spreadsheet configured)")
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if client, ok := sc.clients[spreadsheetID]; ok {
		return client, nil
	}

	client, err := sc.newClient(sc.ctx, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client for %s: %w", spreadsheetID, err)
	}

	sc.logger.Debug("cached sheets client", logging.Spreadsheet(spreadsheetID))
	sc.clients[spreadsheetID] = client
	return client, nil
}

// SetSheetsClient caches client under its spreadsheet ID.
func (sc *ServerContext) SetSheetsClient(client *sheets.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.clients[client.SpreadsheetID()] = client
}

// ClientState is the authorization state of one cached client.
type ClientState struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	State         string `json:"state"`
}

// ClientStates lists the cached clients ordered by spreadsheet ID.
func (sc *ServerContext) ClientStates() []ClientState {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	states := make([]ClientState, 0, len(sc.clients))
	for id, client := range sc.clients {
		states = append(states, ClientState{
			SpreadsheetID: id,
			State:         client.AuthorizationState().String(),
		})
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].SpreadsheetID < states[j].SpreadsheetID
	})
	return states
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops cached clients.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.clients = make(map[string]*sheets.Client)
	sc.cancel()
	return nil
}
