package ratelimit

import "go.uber.org/fx"

// Module provides the login limiter and the report run lock. Both fall back
// to no-ops when the session module provides no redis client.
var Module = fx.Module("rate.limit",
	fx.Provide(NewLoginLimiter),
	fx.Provide(NewRunLocker),
)
