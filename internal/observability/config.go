package observability

import (
	"strings"

	"github.com/smallbiznis/cuadra/internal/config"
)

const (
	defaultServiceName = "cuadra"
	cliServiceSuffix   = "ctl"
)

// Config is the telemetry view of the application configuration.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	t := cfg.Telemetry
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	endpoint := strings.TrimSpace(t.OTLPEndpoint)

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             normalize(t.LogLevel, "info"),
		LogFormat:            normalize(t.LogFormat, "json"),
		OtelEnabled:          t.OtelEnabled && endpoint != "",
		OtelExporterEndpoint: endpoint,
		OtelExporterProtocol: normalize(t.OTLPProtocol, "grpc"),
		OtelSamplingRatio:    clampRatio(t.SamplingRatio),
	}
}

// CLIConfig names the command line tool's telemetry. It never exports.
func CLIConfig(cfg config.Config) Config {
	c := LoadConfig(cfg)
	c.ServiceName += cliServiceSuffix
	c.OtelEnabled = false
	return c
}

func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	return isDevEnv(c.Environment)
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func normalize(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
