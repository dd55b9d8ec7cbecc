package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const mysqlDuplicateEntry = 1062

// Dialect captures what differs between the database/sql backends.
type Dialect struct {
	Name            string
	Schema          []string
	UniqueViolation func(error) bool
}

// MySQL is the dialect of the site's existing MySQL database.
var MySQL = Dialect{
	Name: DriverMySQL,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         BIGINT       AUTO_INCREMENT PRIMARY KEY,
			name       VARCHAR(100) NOT NULL,
			email      VARCHAR(255) NOT NULL UNIQUE,
			password   VARCHAR(255) NOT NULL,
			created_at DATETIME     NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS auth_tokens (
			id       BIGINT       AUTO_INCREMENT PRIMARY KEY,
			user_id  BIGINT       NOT NULL,
			selector VARCHAR(64)  NOT NULL UNIQUE,
			token    VARCHAR(255) NOT NULL,
			expires  DATETIME     NOT NULL,
			INDEX auth_tokens_user_id_idx (user_id),
			CONSTRAINT auth_tokens_user_fk FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	UniqueViolation: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
	},
}

// SQLite is used for local runs and tests.
var SQLite = Dialect{
	Name: DriverSQLite,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         INTEGER  PRIMARY KEY AUTOINCREMENT,
			name       TEXT     NOT NULL,
			email      TEXT     NOT NULL UNIQUE,
			password   TEXT     NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS auth_tokens (
			id       INTEGER  PRIMARY KEY AUTOINCREMENT,
			user_id  INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			selector TEXT     NOT NULL UNIQUE,
			token    TEXT     NOT NULL,
			expires  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS auth_tokens_user_id_idx ON auth_tokens (user_id)`,
	},
	UniqueViolation: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE")
		}
		return false
	},
}

// SQLStore handles users and remember-me tokens over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func openMySQL(ctx context.Context, dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	// DATETIME columns scan into time.Time only with parseTime.
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return NewSQLStore(db, MySQL), nil
}

func openSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return NewSQLStore(db, SQLite), nil
}

func (s *SQLStore) Close() { s.db.Close() }

// Migrate creates the users and auth_tokens tables if they don't exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect.Name, err)
		}
	}
	return nil
}

func (s *SQLStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	// DATETIME keeps whole seconds on MySQL.
	created := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password, created_at) VALUES (?, ?, ?, ?)`,
		name, email, passwordHash, created,
	)
	if err != nil {
		if s.dialect.UniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &models.User{ID: id, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: created}, nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE email = ?`, email)
}

func (s *SQLStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findUser(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLStore) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *SQLStore) DeleteTokensForUser(ctx context.Context, userID int64) error {
	return sqlDeleteTokens(ctx, s.db, userID)
}

func (s *SQLStore) InsertToken(ctx context.Context, t models.RememberToken) error {
	return sqlInsertToken(ctx, s.db, t)
}

func (s *SQLStore) FindTokenBySelector(ctx context.Context, selector string) (*models.RememberToken, error) {
	var t models.RememberToken
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, selector, token, expires FROM auth_tokens WHERE selector = ?`, selector,
	).Scan(&t.UserID, &t.Selector, &t.TokenHash, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

// ReplaceTokens removes every token of t.UserID and inserts t in one
// transaction.
func (s *SQLStore) ReplaceTokens(ctx context.Context, t models.RememberToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := sqlDeleteTokens(ctx, tx, t.UserID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := sqlInsertToken(ctx, tx, t); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func sqlDeleteTokens(ctx context.Context, db sqlExecer, userID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func sqlInsertToken(ctx context.Context, db sqlExecer, t models.RememberToken) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO auth_tokens (user_id, selector, token, expires) VALUES (?, ?, ?, ?)`,
		t.UserID, t.Selector, t.TokenHash, t.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}
