package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("METRICS_EXPORTER", "")
	t.Setenv("TRACING_EXPORTER", "")
	t.Setenv("INSTRUMENTATION_ENABLED", "")

	cfg := DefaultConfig()
	assert.Equal(t, "sheetgate", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ExporterPrometheus, cfg.MetricsExporter)
	assert.Equal(t, ExporterNone, cfg.TracingExporter)
	assert.InDelta(t, 0.1, cfg.TraceSamplingRate, 1e-9)
	assert.True(t, cfg.AuditLogging.Enabled)
}

func TestDefaultConfig_FromEnvironment(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "sheets-prod")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "not-a-bool")

	cfg := DefaultConfig()
	assert.Equal(t, "sheets-prod", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.InDelta(t, 0.5, cfg.TraceSamplingRate, 1e-9)
	assert.False(t, cfg.OTLPInsecure)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "defaults", config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone}},
		{name: "empty exporters", config: Config{}},
		{name: "sampling too high", config: Config{TraceSamplingRate: 1.5}, wantErr: "sampling rate"},
		{name: "sampling negative", config: Config{TraceSamplingRate: -0.1}, wantErr: "sampling rate"},
		{name: "bad metrics exporter", config: Config{MetricsExporter: "statsd"}, wantErr: "invalid metrics exporter"},
		{name: "bad tracing exporter", config: Config{TracingExporter: "jaeger"}, wantErr: "invalid tracing exporter"},
		{name: "otlp without endpoint", config: Config{TracingExporter: ExporterOTLP}, wantErr: "OTLP endpoint"},
		{name: "otlp with endpoint", config: Config{MetricsExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
