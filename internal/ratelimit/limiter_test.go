package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiterDisabledWithoutRedis(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, LoginRate: 1, LoginBurst: 1}}
	limiter := NewLoginLimiter(cfg, nil)

	assert.False(t, limiter.Enabled())
	for i := 0; i < 10; i++ {
		res, err := limiter.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestTokenBucketRequiresClient(t *testing.T) {
	var bucket *TokenBucket
	res, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
	assert.False(t, res.Allowed)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cuadra:login:unknown", loginKey(" "))
	assert.Equal(t, "cuadra:login:10.0.0.1", loginKey("10.0.0.1"))
}

func TestNewResultRetryAfter(t *testing.T) {
	at := time.UnixMilli(1_000)

	denied := newResult(false, 5, 0.5, 0.25, at)
	assert.Equal(t, 2*time.Second, denied.RetryAfter)
	assert.Equal(t, at.Add(2*time.Second), denied.ResetTime)
	assert.Equal(t, 5, denied.Limit)

	allowed := newResult(true, 5, 3, 0.25, at)
	assert.Zero(t, allowed.RetryAfter)
	assert.Equal(t, 3, allowed.Remaining)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, defaultBucketTTL(0, 1))
	assert.Equal(t, 20*time.Second, defaultBucketTTL(0.5, 5))
}

func TestCasts(t *testing.T) {
	assert.Equal(t, int64(3), castToInt(int64(3)))
	assert.Equal(t, int64(0), castToInt("x"))
	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Equal(t, float64(4), castToFloat(int64(4)))
}
