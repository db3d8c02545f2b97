package session

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const lockStripes = 32

type Params struct {
	fx.In

	Config  config.Config
	Store   Store
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// Manager creates sessions and owns their per-page result cache.
type Manager struct {
	store   Store
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// read-modify-write of one session is serialized per process
	locks [lockStripes]sync.Mutex
}

func NewManager(p Params) *Manager {
	ttl := p.Config.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		store:   p.Store,
		ttl:     ttl,
		log:     p.Log.Named("session.manager"),
		metrics: p.Metrics,
		now:     time.Now,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) Create(ctx context.Context) (Session, error) {
	now := m.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNotFound
	}
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		return Session{}, ErrExpired
	}
	return s, nil
}

// Destroy removes the session together with every cached result.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// SetCapabilities caches the negotiated ERP schema for the session.
func (m *Manager) SetCapabilities(ctx context.Context, id string, caps erp.Capabilities) error {
	return m.update(ctx, id, func(s *Session) {
		s.Capabilities = &caps
	})
}

// Lookup compares the cached result of page with signature. Nothing is
// recomputed here.
func (m *Manager) Lookup(ctx context.Context, id, page, signature string) (Lookup, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return Lookup{}, err
	}
	result := Lookup{State: StateIdle}
	if entry, ok := s.Results[page]; ok {
		result.Entry = entry
		result.State = StateStale
		if entry.Signature == signature {
			result.State = StateReady
		}
	}
	m.metrics.RecordCacheLookup(ctx, page, string(result.State))
	return result, nil
}

// Store replaces the cached result of page.
func (m *Manager) Store(ctx context.Context, id, page, signature string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s result: %w", page, err)
	}
	return m.update(ctx, id, func(s *Session) {
		if s.Results == nil {
			s.Results = make(map[string]Entry)
		}
		s.Results[page] = Entry{Signature: signature, Payload: raw, StoredAt: m.now().UTC()}
	})
}

// Clear drops the cached result of page.
func (m *Manager) Clear(ctx context.Context, id, page string) error {
	return m.update(ctx, id, func(s *Session) {
		delete(s.Results, page)
	})
}

func (m *Manager) update(ctx context.Context, id string, fn func(*Session)) error {
	mu := m.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(&s)
	remaining := s.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return ErrExpired
	}
	return m.store.Save(ctx, s, remaining)
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockStripes]
}
