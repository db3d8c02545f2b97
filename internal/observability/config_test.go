package observability

import (
	"testing"

	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestLoadConfigNormalizes(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName:     " ",
		AppVersion:  " 1.2.0 ",
		Environment: "production",
		Telemetry: config.TelemetryConfig{
			LogLevel:      " WARN ",
			LogFormat:     "",
			OtelEnabled:   true,
			OTLPEndpoint:  " collector:4317 ",
			OTLPProtocol:  "HTTP/Protobuf",
			SamplingRatio: 3,
		},
	})

	assert.Equal(t, "cuadra", cfg.ServiceName)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "collector:4317", cfg.OtelExporterEndpoint)
	assert.Equal(t, "http/protobuf", cfg.OtelExporterProtocol)
	assert.Equal(t, float64(1), cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigDisablesOtelWithoutEndpoint(t *testing.T) {
	cfg := LoadConfig(config.Config{Telemetry: config.TelemetryConfig{OtelEnabled: true, SamplingRatio: -1}})

	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Zero(t, cfg.OtelSamplingRatio)
}

func TestDebug(t *testing.T) {
	assert.True(t, Config{LogLevel: "debug", Environment: "production"}.Debug())
	assert.True(t, Config{LogLevel: "info", Environment: " Local "}.Debug())
	assert.False(t, Config{LogLevel: "info", Environment: "staging"}.Debug())
}

func TestCLIConfigNeverExports(t *testing.T) {
	cfg := CLIConfig(config.Config{
		AppName:   "cuadra",
		Telemetry: config.TelemetryConfig{OtelEnabled: true, OTLPEndpoint: "collector:4317"},
	})

	assert.Equal(t, "cuadractl", cfg.ServiceName)
	assert.False(t, cfg.OtelEnabled)
}

func TestCLIModuleProvidesERPMetrics(t *testing.T) {
	var erpMetrics *metrics.ERPMetrics
	app := fxtest.New(t,
		fx.Supply(config.Config{AppName: "cuadra", Environment: "test"}),
		CLIModule,
		fx.Populate(&erpMetrics),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, erpMetrics)
}
