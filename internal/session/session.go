package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlackMission/workosauth/internal/domain"
)

// Session is the handle both strategy phases receive for one end user.
type Session struct {
	id    string
	store Store
	ttl   time.Duration
}

// New binds a session id to a store. Entries written through it expire
// after ttl.
func New(id string, store Store, ttl time.Duration) *Session {
	return &Session{id: id, store: store, ttl: ttl}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Put stores v as JSON under key for the session lifetime.
func (s *Session) Put(ctx context.Context, key string, v any) error {
	return s.PutTTL(ctx, key, v, s.ttl)
}

// PutTTL stores v as JSON under key. The entry expires after ttl, capped at
// the session lifetime.
func (s *Session) PutTTL(ctx context.Context, key string, v any, ttl time.Duration) error {
	if ttl <= 0 || ttl > s.ttl {
		ttl = s.ttl
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: failed to marshal %q: %w", key, err)
	}
	return s.store.Set(ctx, s.id, key, data, ttl)
}

// Consume loads the value under key into v and removes it. It reports false
// when nothing was stored, or when a concurrent caller consumed it first.
func (s *Session) Consume(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.store.Take(ctx, s.id, key)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("session: failed to unmarshal %q: %w", key, err)
	}
	return true, nil
}

// Destroy drops every entry of the session.
func (s *Session) Destroy(ctx context.Context) error {
	return s.store.Delete(ctx, s.id)
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by the middleware, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
