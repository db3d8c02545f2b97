package erp

import (
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("erp",
	fx.Provide(
		provideClient,
		func(c *Client) Reader { return c },
	),
)

func provideClient(cfg config.Config, log *zap.Logger, m *metrics.ERPMetrics) (*Client, error) {
	return NewClient(cfg.ERP, log, m)
}
