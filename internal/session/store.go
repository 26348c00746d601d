package session

import (
	"context"
	"time"
)

// Store keeps per-session entries. Every entry lives under a session id, so
// concurrent sessions never observe each other's values.
//
// Take must be atomic: when two callers race on the same entry exactly one
// receives the value and the other gets domain.ErrSessionNotFound.
type Store interface {
	Set(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error
	Take(ctx context.Context, sessionID, key string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
}
