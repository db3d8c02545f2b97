package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cuadra/internal/config"
)

const keyLoginClient = "cuadra:login:%s"

// LoginLimiter throttles portal login attempts per client address. Without
// redis every attempt is allowed.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewLoginLimiter(cfg config.Config, client *redis.Client) *LoginLimiter {
	limitCfg := cfg.RateLimit
	if client == nil || !limitCfg.Enabled || limitCfg.LoginRate <= 0 || limitCfg.LoginBurst <= 0 {
		return &LoginLimiter{}
	}
	return &LoginLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.LoginRate,
		burst:  limitCfg.LoginBurst,
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *LoginLimiter) Allow(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, loginKey(clientIP), l.rate, l.burst)
}

func loginKey(clientIP string) string {
	ip := strings.TrimSpace(clientIP)
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf(keyLoginClient, ip)
}
