// Package store holds the persistence backends: the credential store for
// users and remember-me tokens (PostgreSQL, MySQL or SQLite), the Redis
// client used for sessions, and the MongoDB / MinIO catalogue stores.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned by lookups that match no row or object.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned by CreateUser when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Credentials is the credential store shared by the auth and remember-me
// services.
type Credentials interface {
	Migrate(ctx context.Context) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	DeleteTokensForUser(ctx context.Context, userID int64) error
	InsertToken(ctx context.Context, token models.RememberToken) error
	FindTokenBySelector(ctx context.Context, selector string) (*models.RememberToken, error)
	ReplaceTokens(ctx context.Context, token models.RememberToken) error
	Close()
}

// Supported credential store drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// OpenCredentials connects to the credential database selected by driver
// and verifies the connection.
func OpenCredentials(ctx context.Context, driver, dsn string) (Credentials, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch driver {
	case DriverPostgres, "":
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		return &pgPoolStore{PostgresStore: NewPostgresStore(pool), pool: pool}, nil
	case DriverMySQL:
		s, err := openMySQL(pingCtx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := openSQLite(pingCtx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// pgPoolStore ties the pool lifetime to the store.
type pgPoolStore struct {
	*PostgresStore
	pool *pgxpool.Pool
}

func (s *pgPoolStore) Close() { s.pool.Close() }
