package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// pgxConn is the subset of *pgxpool.Pool the store needs.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore handles users and remember-me tokens in PostgreSQL.
type PostgresStore struct {
	db pgxConn
}

func NewPostgresStore(db pgxConn) *PostgresStore {
	return &PostgresStore{db: db}
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL    PRIMARY KEY,
		name       VARCHAR(100) NOT NULL,
		email      VARCHAR(255) UNIQUE NOT NULL,
		password   VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id       BIGSERIAL    PRIMARY KEY,
		user_id  BIGINT       NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		selector VARCHAR(64)  UNIQUE NOT NULL,
		token    VARCHAR(255) NOT NULL,
		expires  TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS auth_tokens_user_id_idx ON auth_tokens (user_id)`,
}

// Migrate creates the users and auth_tokens tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	u := &models.User{Name: name, Email: email, PasswordHash: passwordHash}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		name, email, passwordHash, time.Now().UTC(),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findUser(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) DeleteTokensForUser(ctx context.Context, userID int64) error {
	return pgDeleteTokens(ctx, s.db, userID)
}

func (s *PostgresStore) InsertToken(ctx context.Context, t models.RememberToken) error {
	return pgInsertToken(ctx, s.db, t)
}

func (s *PostgresStore) FindTokenBySelector(ctx context.Context, selector string) (*models.RememberToken, error) {
	var t models.RememberToken
	err := s.db.QueryRow(ctx,
		`SELECT user_id, selector, token, expires FROM auth_tokens WHERE selector = $1`, selector,
	).Scan(&t.UserID, &t.Selector, &t.TokenHash, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

// ReplaceTokens removes every token of t.UserID and inserts t in one
// transaction, so a user never holds zero or two live tokens mid-way.
func (s *PostgresStore) ReplaceTokens(ctx context.Context, t models.RememberToken) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := pgDeleteTokens(ctx, tx, t.UserID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := pgInsertToken(ctx, tx, t); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func pgDeleteTokens(ctx context.Context, db pgExecer, userID int64) error {
	if _, err := db.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func pgInsertToken(ctx context.Context, db pgExecer, t models.RememberToken) error {
	_, err := db.Exec(ctx,
		`INSERT INTO auth_tokens (user_id, selector, token, expires)
		 VALUES ($1, $2, $3, $4)`,
		t.UserID, t.Selector, t.TokenHash, t.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}
