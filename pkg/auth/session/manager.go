package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/freshmart/storefront-backend/pkg/auth"
	"github.com/freshmart/storefront-backend/pkg/config"
	redisclient "github.com/freshmart/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Store is the subset of the redis client a Manager needs, for callers that
// bring their own backing store.
type Store interface {
	sessionStore
	sessionKeyer
}

// Session is one browser session loaded for the duration of a request.
type Session struct {
	ID    string
	State State

	snapshot   []byte
	isNew      bool
	destroyed  bool
	previousID string
}

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool { return s.isNew }

// Destroyed reports whether Destroy was called.
func (s *Session) Destroyed() bool { return s.destroyed }

// Destroy drops all state; the store entry is removed on commit.
func (s *Session) Destroy() {
	s.destroyed = true
	s.State = State{}
}

// Regenerate moves the state under a fresh identifier, used on login and logout.
func (s *Session) Regenerate() {
	if s.previousID == "" && !s.isNew {
		s.previousID = s.ID
	}
	s.ID = NewSessionID()
}

// Rotated reports whether the identifier changed during this request.
func (s *Session) Rotated() bool {
	return s.previousID != "" || s.isNew
}

// Manager loads and persists session state in Redis and signs the cookie token.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	cfg   config.SessionConfig
	now   func() time.Time
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, client, cfg)
}

// NewManagerWithStore constructs a session manager over any Store.
func NewManagerWithStore(store Store, cfg config.SessionConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return newManager(store, store, cfg)
}

func newManager(store sessionStore, keyer sessionKeyer, cfg config.SessionConfig) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	return &Manager{
		store: store,
		keyer: keyer,
		cfg:   cfg,
		now:   time.Now,
	}, nil
}

// Config exposes the cookie settings.
func (m *Manager) Config() config.SessionConfig {
	return m.cfg
}

// Load resolves the session referenced by token. A missing, invalid or expired
// token, or a token whose state has expired, yields a fresh empty session.
func (m *Manager) Load(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return m.fresh(), nil
	}

	claims, err := pkgAuth.ParseSessionToken(m.cfg, token)
	if err != nil {
		return m.fresh(), nil
	}

	raw, err := m.store.Get(ctx, m.keyer.SessionKey(claims.SessionID()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return m.fresh(), nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return m.fresh(), nil
	}

	sess := &Session{ID: claims.SessionID(), State: state}
	sess.snapshot = mustSnapshot(state)
	return sess, nil
}

// Commit persists the session. Unchanged sessions only get their TTL refreshed,
// and brand-new sessions with nothing in them are never written.
func (m *Manager) Commit(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		keys := []string{m.keyer.SessionKey(sess.ID)}
		if sess.previousID != "" {
			keys = append(keys, m.keyer.SessionKey(sess.previousID))
		}
		return m.store.Del(ctx, keys...)
	}

	if sess.isNew && sess.State.isEmpty() {
		return nil
	}

	var errs error
	if sess.previousID != "" {
		errs = multierr.Append(errs, m.store.Del(ctx, m.keyer.SessionKey(sess.previousID)))
	}

	payload, err := json.Marshal(sess.State)
	if err != nil {
		return multierr.Append(errs, fmt.Errorf("encode session: %w", err))
	}

	key := m.keyer.SessionKey(sess.ID)
	if !sess.isNew && sess.previousID == "" && bytes.Equal(payload, sess.snapshot) {
		return multierr.Append(errs, m.store.Expire(ctx, key, m.cfg.TTL))
	}
	if err := m.store.Set(ctx, key, string(payload), m.cfg.TTL); err != nil {
		return multierr.Append(errs, fmt.Errorf("save session: %w", err))
	}
	sess.snapshot = payload
	return errs
}

// Persisted reports whether a committed session exists in the store, meaning
// the browser needs a cookie for it.
func (m *Manager) Persisted(sess *Session) bool {
	if sess == nil || sess.destroyed {
		return false
	}
	return !(sess.isNew && sess.State.isEmpty())
}

// Token signs the cookie value for sess.
func (m *Manager) Token(sess *Session) (string, error) {
	return pkgAuth.MintSessionToken(m.cfg, m.now(), sess.ID)
}

func (m *Manager) fresh() *Session {
	return &Session{ID: NewSessionID(), isNew: true}
}

// NewSessionID produces the identifier used as the JWT jti and Redis key suffix.
func NewSessionID() string {
	return uuid.NewString()
}

func mustSnapshot(state State) []byte {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	return payload
}
