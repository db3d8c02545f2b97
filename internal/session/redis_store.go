package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cuadra:session:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore keeps sessions in redis as snappy-compressed JSON so several
// API instances share them.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (r *redisStore) Load(ctx context.Context, id string) (Session, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return decodeSession(raw)
}

func (r *redisStore) Save(ctx context.Context, s Session, ttl time.Duration) error {
	raw, err := encodeSession(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKeyPrefix+s.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKeyPrefix+id).Err()
}

func encodeSession(s Session) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

func decodeSession(raw []byte) (Session, error) {
	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		return Session{}, fmt.Errorf("decompress session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(decoded, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}
