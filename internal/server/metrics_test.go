package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/sheetgate/internal/instrumentation"
)

func createTestProvider(t *testing.T, exporter string) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: exporter,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestNewMetricsServer(t *testing.T) {
	disabled, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)

	tests := []struct {
		name        string
		config      MetricsServerConfig
		errContains string
		wantAddr    string
	}{
		{name: "valid", config: MetricsServerConfig{Addr: ":9091", InstrumentationProvider: createTestProvider(t, instrumentation.ExporterPrometheus)}, wantAddr: ":9091"},
		{name: "default addr", config: MetricsServerConfig{InstrumentationProvider: createTestProvider(t, instrumentation.ExporterPrometheus)}, wantAddr: DefaultMetricsAddr},
		{name: "nil provider", config: MetricsServerConfig{}, errContains: "instrumentation provider is required"},
		{name: "disabled provider", config: MetricsServerConfig{InstrumentationProvider: disabled}, errContains: "not enabled"},
		{name: "stdout exporter", config: MetricsServerConfig{InstrumentationProvider: createTestProvider(t, instrumentation.ExporterStdout)}, errContains: "not prometheus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewMetricsServer(tt.config)
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, server.Addr())
		})
	}
}

func TestMetricsServer_Handler(t *testing.T) {
	provider := createTestProvider(t, instrumentation.ExporterPrometheus)
	provider.Metrics().RecordAuthorizationHandshake(context.Background(), instrumentation.HandshakeSuccess, "robot@example.com", 0)

	server, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	require.NoError(t, err)

	rec := get(t, server.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = get(t, server.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sheets_authorization_handshakes_total")
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{
		InstrumentationProvider: createTestProvider(t, instrumentation.ExporterPrometheus),
	})
	require.NoError(t, err)
	assert.NoError(t, server.Shutdown(context.Background()))
}

func TestInstrumentHandler(t *testing.T) {
	handler := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), nil, "mcp")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
