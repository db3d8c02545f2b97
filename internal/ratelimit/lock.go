package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cuadra/internal/config"
	"go.uber.org/zap"
)

const keyReportRun = "cuadra:run:%s:%s:%s"

const (
	lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`
	lockExtendScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`
)

const defaultRunLockTTL = 2 * time.Minute

// ErrRunInProgress is returned when the same session already runs the page
// with the same filter.
var ErrRunInProgress = errors.New("run_in_progress")

// lockStore holds token-owned keys with an expiry.
type lockStore interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type redisLockStore struct {
	client  *redis.Client
	release *redis.Script
	extend  *redis.Script
}

func newRedisLockStore(client *redis.Client) *redisLockStore {
	return &redisLockStore{
		client:  client,
		release: redis.NewScript(lockReleaseScript),
		extend:  redis.NewScript(lockExtendScript),
	}
}

func (s *redisLockStore) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, token, ttl).Result()
}

func (s *redisLockStore) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := s.extend.Run(ctx, s.client, []string{key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *redisLockStore) Release(ctx context.Context, key, token string) error {
	return s.release.Run(ctx, s.client, []string{key}, token).Err()
}

// RunLocker keeps one session from running the same report with the same
// filter twice at once. A held lock is refreshed until released, so slow ERP
// runs keep it for their whole duration.
type RunLocker struct {
	store   lockStore
	ttl     time.Duration
	refresh time.Duration
	log     *zap.Logger
}

func NewRunLocker(cfg config.Config, client *redis.Client, log *zap.Logger) *RunLocker {
	if client == nil {
		return &RunLocker{log: log}
	}
	return newRunLocker(newRedisLockStore(client), cfg.RateLimit.RunLockTTL, log)
}

func newRunLocker(store lockStore, ttl time.Duration, log *zap.Logger) *RunLocker {
	if ttl <= 0 {
		ttl = defaultRunLockTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RunLocker{
		store:   store,
		ttl:     ttl,
		refresh: ttl / 3,
		log:     log.Named("ratelimit.runlock"),
	}
}

func (r *RunLocker) Enabled() bool {
	return r != nil && r.store != nil
}

// Acquire locks the run and returns its release func. It fails with
// ErrRunInProgress when the lock is held elsewhere.
func (r *RunLocker) Acquire(ctx context.Context, sessionID, page, signature string) (func(), error) {
	if !r.Enabled() {
		return func() {}, nil
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("run lock: session is empty")
	}

	key := runKey(sessionID, page, signature)
	token := uuid.NewString()
	ok, err := r.store.TryLock(ctx, key, token, r.ttl)
	if err != nil {
		return nil, fmt.Errorf("run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}

	lease := &runLease{
		locker:  r,
		key:     key,
		token:   token,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go lease.keepAlive(context.WithoutCancel(ctx))
	return lease.release, nil
}

type runLease struct {
	locker  *RunLocker
	key     string
	token   string
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (l *runLease) keepAlive(ctx context.Context) {
	defer close(l.stopped)
	ticker := time.NewTicker(l.locker.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			ok, err := l.locker.store.Extend(ctx, l.key, l.token, l.locker.ttl)
			if err != nil {
				l.locker.log.Warn("run lock not extended", zap.String("key", l.key), zap.Error(err))
				continue
			}
			if !ok {
				l.locker.log.Warn("run lock lost", zap.String("key", l.key))
				return
			}
		}
	}
}

func (l *runLease) release() {
	l.once.Do(func() {
		close(l.done)
		<-l.stopped
		if err := l.locker.store.Release(context.Background(), l.key, l.token); err != nil {
			l.locker.log.Warn("run lock not released", zap.String("key", l.key), zap.Error(err))
		}
	})
}

// runKey names the lock of one filter run. The signature is folded into a
// fixed-size name.
func runKey(sessionID, page, signature string) string {
	sig := uuid.NewSHA1(uuid.NameSpaceOID, []byte(signature)).String()
	return fmt.Sprintf(keyReportRun, strings.TrimSpace(sessionID), strings.TrimSpace(page), sig)
}
