package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/seojindev/idhub-backend/pkg/config"
	redisclient "github.com/seojindev/idhub-backend/pkg/redis"
)

const sessionIDBytes = 32

// ErrNoSession is returned when a session id has no live entry (expired,
// invalidated, or never issued).
var ErrNoSession = errors.New("no active session")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Manager is the opaque server-side session container. It holds exactly one
// serialized principal per session id; the HTTP cookie carries only the id.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Put serializes the payload under a fresh session id and returns the id.
func (m *Manager) Put(ctx context.Context, payload any) (string, error) {
	if payload == nil {
		return "", fmt.Errorf("session payload is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal session payload: %w", err)
	}

	sessionID, err := newSessionID()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), string(raw), m.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Get deserializes the session payload into dest. Absent or expired sessions
// yield ErrNoSession.
func (m *Manager) Get(ctx context.Context, sessionID string, dest any) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrNoSession
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return ErrNoSession
		}
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("unmarshal session payload: %w", err)
	}
	return nil
}

// Invalidate removes the session entry. Invalidating an absent session is a no-op.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}

// TTL exposes the configured session lifetime (cookie Max-Age mirrors it).
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func newSessionID() (string, error) {
	bytes := make([]byte, sessionIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
