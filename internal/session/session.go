// Package session keeps authenticated sessions in Redis, keyed by the
// session_id cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ayush/animanga/backend/internal/models"
)

const (
	DefaultTTL = 24 * time.Hour
	CookieName = "session_id"

	keyPrefix = "session:"
)

// Session is the per-visitor state established at login or signup.
type Session struct {
	ID        string `json:"-"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	LoggedIn  bool   `json:"logged_in"`
}

// IsAuthenticated reports whether s belongs to a logged-in user. It is safe
// to call on a nil Session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.LoggedIn && s.UserID != 0
}

// Manager wraps Redis for session management.
type Manager struct {
	rdb    *redis.Client
	ttl    time.Duration
	secure bool
}

func NewManager(rdb *redis.Client, ttl time.Duration, secureCookie bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{rdb: rdb, ttl: ttl, secure: secureCookie}
}

// Establish starts a new authenticated session for u and sets the session
// cookie. Any session carried by r is discarded first so a pre-login id is
// never promoted.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, r *http.Request, u *models.User) (*Session, error) {
	if keys := requestKeys(r); len(keys) > 0 {
		if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
			return nil, fmt.Errorf("drop previous session: %w", err)
		}
	}

	s := &Session{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		UserName:  u.Name,
		UserEmail: u.Email,
		LoggedIn:  true,
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := m.rdb.Set(ctx, keyPrefix+s.ID, data, m.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl / time.Second),
	})
	return s, nil
}

// Get returns the session stored under id, or nil if not found / expired.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	data, err := m.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	s.ID = id
	return &s, nil
}

// Load returns the session referenced by the request cookie, or nil.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	return m.Get(ctx, c.Value)
}

// Destroy removes the request's session and expires its cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if keys := requestKeys(r); len(keys) > 0 {
		err = m.rdb.Del(ctx, keys...).Err()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		MaxAge:   -1,
	})
	return err
}

// requestKeys lists the Redis keys of every session r refers to: the one
// named by its cookie and the one the middleware attached to its context,
// which differs after a remember-me login earlier in the same request.
func requestKeys(r *http.Request) []string {
	var keys []string
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		keys = append(keys, keyPrefix+c.Value)
	}
	if s := FromContext(r.Context()); s != nil && s.ID != "" {
		if k := keyPrefix + s.ID; len(keys) == 0 || keys[0] != k {
			keys = append(keys, k)
		}
	}
	return keys
}
