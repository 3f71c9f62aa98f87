package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/sheetgate/internal/config"
	"github.com/teemow/sheetgate/internal/instrumentation"
	"github.com/teemow/sheetgate/internal/logging"
	"github.com/teemow/sheetgate/internal/resources"
	"github.com/teemow/sheetgate/internal/server"
	"github.com/teemow/sheetgate/internal/tools/sheets_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions collects the serve flags.
type serveOptions struct {
	debugMode bool
	transport string
	httpAddr  string
	yolo      bool
	metrics   MetricsConfig

	spreadsheetID       string
	serviceAccountEmail string
	privateKeyFile      string
}

// configOverride returns the flag values that take precedence over the
// config file and environment.
func (o serveOptions) configOverride() config.Config {
	return config.Config{
		SpreadsheetID:       o.spreadsheetID,
		ServiceAccountEmail: o.serviceAccountEmail,
		PrivateKeyFile:      o.privateKeyFile,
	}
}

func (o serveOptions) validate() error {
	switch o.transport {
	case transportStdio, transportStreamableHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", o.transport, transportStdio, transportStreamableHTTP)
	}
}

// applyMetricsEnv fills metrics settings from METRICS_ENABLED and
// METRICS_ADDR when the flags were left alone.
func (o *serveOptions) applyMetricsEnv(cmd *cobra.Command) {
	if !cmd.Flags().Changed("metrics-enabled") {
		switch os.Getenv("METRICS_ENABLED") {
		case "true":
			o.metrics.Enabled = true
		case "false":
			o.metrics.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			o.metrics.Addr = addr
		}
	}
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server to expose Google Sheets
operations as tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

By default the server is read-only. Pass --yolo to register the tools
that update, append and create sheets.

Credentials come from flags, the config file or the environment:
  GOOGLE_SERVICE_ACCOUNT_EMAIL, GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY,
  GOOGLE_SERVICE_ACCOUNT_KEY_FILE, SHEETGATE_SPREADSHEET_ID`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load metrics config from environment if not set via flags
			opts.applyMetricsEnv(cmd)
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (update, append, create sheet)")
	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Serve Prometheus metrics on a separate port (env: METRICS_ENABLED)")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address (env: METRICS_ADDR)")
	// Credential and spreadsheet flags win over the config file and environment
	cmd.Flags().StringVar(&opts.spreadsheetID, "spreadsheet-id", "", "Default spreadsheet ID for tools that omit spreadsheet_id")
	cmd.Flags().StringVar(&opts.serviceAccountEmail, "service-account-email", "", "Service account email")
	cmd.Flags().StringVar(&opts.privateKeyFile, "private-key-file", "", "PEM private key or service account JSON key file")

	return cmd
}

func runServe(opts serveOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(opts.debugMode)
	slog.SetDefault(logger)

	// File and environment first, then flags on top
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = cfg.Merge(opts.configOverride())

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// stdout belongs to the protocol in stdio mode, so no metrics listener.
	var metricsServer *server.MetricsServer
	if opts.transport != transportStdio && opts.metrics.Enabled && provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
	}

	// Create server context; spreadsheet clients are built lazily per ID
	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Config:      cfg,
		Logger:      logger,
		Metrics:     provider.Metrics(),
		AuditLogger: instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging),
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("sheetgate", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	readOnly := !opts.yolo
	if readOnly {
		logger.Info("starting in read-only mode, use --yolo to enable write tools")
	} else {
		logger.Info("starting with write tools enabled")
	}
	if cfg.SpreadsheetID == "" {
		logger.Warn("no default spreadsheet configured, every tool call must pass spreadsheet_id")
	}

	// Register tools and resources, write tools only outside read-only mode
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.httpAddr, logger)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{name: "Sheets tools", register: func() error { return sheets_tools.RegisterSheetsTools(mcpSrv, sc, readOnly) }},
		{name: "Sheets resources", register: func() error { return resources.RegisterSheetsResources(mcpSrv, sc, readOnly) }},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

// newHTTPHandler mounts the MCP endpoint and health checks on one mux.
func newHTTPHandler(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath("/mcp")))
	server.NewHealthChecker(sc, version).RegisterHealthEndpoints(mux)
	return server.InstrumentHandler(mux, sc.Metrics(), "sheetgate.http")
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newHTTPHandler(mcpSrv, sc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("streamable HTTP server starting",
		"addr", addr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", "/healthz, /readyz, /healthz/detailed")

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
