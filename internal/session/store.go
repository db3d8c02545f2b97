package session

import (
	"context"
	"time"

	"github.com/smallbiznis/cuadra/internal/cache"
)

// Store persists sessions by id.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryStore struct {
	entries cache.Cache[string, Session]
}

// NewMemoryStore keeps sessions in process memory.
func NewMemoryStore() Store {
	return &memoryStore{entries: cache.NewTTLCache[string, Session]()}
}

func (m *memoryStore) Load(_ context.Context, id string) (Session, error) {
	s, ok := m.entries.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.clone(), nil
}

func (m *memoryStore) Save(_ context.Context, s Session, ttl time.Duration) error {
	m.entries.Set(s.ID, s.clone(), ttl)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.entries.Delete(id)
	return nil
}
