package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/ayush/animanga/backend/internal/password"
	"github.com/ayush/animanga/backend/internal/store"
)

const minPasswordLen = 8

// UserStore defines the interface for user persistence.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
}

// Service checks credentials and registers users.
type Service struct {
	users    UserStore
	hasher   password.Hasher
	validate *validator.Validate
	log      logrus.FieldLogger

	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash string
}

func NewService(users UserStore, hasher password.Hasher, log logrus.FieldLogger) (*Service, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		validate:  validator.New(),
		log:       log,
		dummyHash: dummy,
	}, nil
}

// NormalizeEmail trims and lower-cases an email so lookups and the UNIQUE
// constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) validEmail(email string) bool {
	return s.validate.Var(email, "required,email") == nil
}

// Authenticate returns the user matching the login form. Unknown email and
// wrong password produce the same error.
func (s *Service) Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	email := NormalizeEmail(req.Email)
	if !s.validEmail(email) {
		return nil, validationError(MsgInvalidEmail)
	}
	if email == "" || req.Password == "" {
		return nil, validationError(MsgMissingFields)
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.hasher.Verify(req.Password, s.dummyHash)
		return nil, &Error{Kind: KindAuthentication, Message: MsgBadCredentials}
	}
	if err != nil {
		s.log.WithError(err).Error("login lookup failed")
		return nil, &Error{Kind: KindStorage, Message: MsgLoginFailed, Err: err}
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, &Error{Kind: KindAuthentication, Message: MsgBadCredentials}
	}
	return user, nil
}

// Register validates the signup form and creates the user.
func (s *Service) Register(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)

	switch {
	case name == "" || email == "" || req.Password == "" || req.ConfirmPassword == "":
		return nil, validationError(MsgMissingFields)
	case !s.validEmail(email):
		return nil, validationError(MsgInvalidEmail)
	case len(req.Password) < minPasswordLen:
		return nil, validationError(MsgPasswordShort)
	case req.Password != req.ConfirmPassword:
		return nil, validationError(MsgPasswordMismatch)
	}

	// Fast path only; the UNIQUE constraint below is what decides.
	_, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, &Error{Kind: KindConflict, Message: MsgEmailTaken}
	case !errors.Is(err, store.ErrNotFound):
		s.log.WithError(err).Error("signup lookup failed")
		return nil, &Error{Kind: KindStorage, Message: MsgSignupFailed, Err: err}
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, password.ErrTooLong) {
		return nil, validationError(MsgPasswordLong)
	}
	if err != nil {
		s.log.WithError(err).Error("password hash failed")
		return nil, &Error{Kind: KindStorage, Message: MsgSignupFailed, Err: err}
	}

	u, err := s.users.CreateUser(ctx, name, email, hash)
	if errors.Is(err, store.ErrDuplicateEmail) {
		return nil, &Error{Kind: KindConflict, Message: MsgEmailTaken}
	}
	if err != nil {
		s.log.WithError(err).Error("create user failed")
		return nil, &Error{Kind: KindStorage, Message: MsgSignupFailed, Err: err}
	}

	s.log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}
