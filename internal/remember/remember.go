// Package remember issues and verifies persistent-login bearer tokens.
//
// A bearer token is "selector:validator". The selector is a lookup key and
// may be logged; the validator is secret and only its hash is stored, so a
// copy of the auth_tokens table cannot be replayed as a login.
package remember

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/ayush/animanga/backend/internal/password"
	"github.com/ayush/animanga/backend/internal/store"
)

const (
	TokenTTL   = 30 * 24 * time.Hour
	CookieName = "remember_me"

	selectorBytes  = 16
	validatorBytes = 32
)

// ErrInvalidToken is returned by Verify for any token that does not
// authenticate: malformed, unknown, expired or mismatched.
var ErrInvalidToken = errors.New("invalid token")

// TokenStore is the part of the credential store the service needs.
type TokenStore interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	DeleteTokensForUser(ctx context.Context, userID int64) error
	FindTokenBySelector(ctx context.Context, selector string) (*models.RememberToken, error)
	ReplaceTokens(ctx context.Context, token models.RememberToken) error
}

// Service issues and verifies remember-me tokens.
type Service struct {
	store  TokenStore
	hasher password.Hasher
	log    logrus.FieldLogger
	now    func() time.Time

	// dummyHash is verified against when no row matches so every failure
	// path costs one hash comparison.
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st TokenStore, hasher password.Hasher, log logrus.FieldLogger, opts ...Option) (*Service, error) {
	s := &Service{store: st, hasher: hasher, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	v, err := randomHex(validatorBytes)
	if err != nil {
		return nil, err
	}
	if s.dummyHash, err = hasher.Hash(v); err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return s, nil
}

// Issue creates a token for userID, replacing any token the user already
// holds, and returns the bearer value for the client.
func (s *Service) Issue(ctx context.Context, userID int64) (string, error) {
	selector, err := randomHex(selectorBytes)
	if err != nil {
		return "", err
	}
	validator, err := randomHex(validatorBytes)
	if err != nil {
		return "", err
	}
	hash, err := s.hasher.Hash(validator)
	if err != nil {
		return "", fmt.Errorf("hash validator: %w", err)
	}

	tok := models.RememberToken{
		UserID:    userID,
		Selector:  selector,
		TokenHash: hash,
		ExpiresAt: s.now().Add(TokenTTL).UTC(),
	}
	if err := s.store.ReplaceTokens(ctx, tok); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "selector": selector}).Info("remember-me token issued")
	return selector + ":" + validator, nil
}

// Verify returns the user a bearer token belongs to. Tokens that do not
// authenticate yield ErrInvalidToken; storage failures are returned wrapped.
func (s *Service) Verify(ctx context.Context, bearer string) (*models.User, error) {
	selector, validator, ok := Split(bearer)
	if !ok {
		return nil, ErrInvalidToken
	}

	tok, err := s.store.FindTokenBySelector(ctx, selector)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find token: %w", err)
	}
	if tok == nil || tok.Expired(s.now()) {
		s.hasher.Verify(validator, s.dummyHash)
		return nil, ErrInvalidToken
	}
	if !s.hasher.Verify(validator, tok.TokenHash) {
		s.log.WithField("selector", selector).Warn("remember-me validator mismatch")
		return nil, ErrInvalidToken
	}

	u, err := s.store.FindUserByID(ctx, tok.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// Revoke removes every token held by userID.
func (s *Service) Revoke(ctx context.Context, userID int64) error {
	if err := s.store.DeleteTokensForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// Split parses a bearer token on its first ':'.
func Split(bearer string) (selector, validator string, ok bool) {
	selector, validator, found := strings.Cut(bearer, ":")
	if !found || selector == "" || validator == "" {
		return "", "", false
	}
	return selector, validator, true
}

// Cookie wraps a bearer token in the remember_me cookie.
func Cookie(bearer string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    bearer,
		Path:     "/",
		MaxAge:   int(TokenTTL / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the remember_me cookie.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: true,
	}
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
