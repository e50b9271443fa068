// Package sqlite is a SQLite-backed store.Store using the pure-Go
// modernc driver. WAL mode keeps single-process concurrent access
// cheap; the schema is three tables plus a one-row counter.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/store"
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and runs the schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username      TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		state         TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		level      TEXT NOT NULL,
		username   TEXT NOT NULL,
		text       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_level ON reviews(level, created_at);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	INSERT INTO meta (key, value) VALUES ('total_time', 0)
		ON CONFLICT(key) DO NOTHING;
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, state FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.PasswordHash, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &u.State); err != nil {
		return nil, fmt.Errorf("decode state for %s: %w", username, err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	stateJSON, err := json.Marshal(user.State)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, state) VALUES (?, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		user.Username, user.PasswordHash, string(stateJSON),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if n == 0 {
		return store.ErrUserExists
	}
	return nil
}

func (s *Store) PutUserState(ctx context.Context, username string, state models.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET state = ? WHERE username = ?`, string(stateJSON), username,
	)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddTotalTime(ctx context.Context, delta int) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`UPDATE meta SET value = value + ? WHERE key = 'total_time' RETURNING value`, delta,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("add total time: %w", err)
	}
	return total, nil
}

func (s *Store) TotalTime(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'total_time'`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total time: %w", err)
	}
	return total, nil
}

func (s *Store) AppendReview(ctx context.Context, review models.Review) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (level, username, text, created_at) VALUES (?, ?, ?, ?)`,
		string(review.Level), review.Username, review.Text,
		review.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append review: %w", err)
	}
	return nil
}

func (s *Store) ReviewsByLevel(ctx context.Context, level models.CardLevel) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT level, username, text, created_at FROM reviews
		 WHERE level = ? ORDER BY created_at DESC, id DESC`, string(level),
	)
	if err != nil {
		return nil, fmt.Errorf("reviews by level: %w", err)
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var r models.Review
		var lvl, createdAt string
		if err := rows.Scan(&lvl, &r.Username, &r.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.Level = models.CardLevel(lvl)
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse review timestamp: %w", err)
		}
		r.CreatedAt = ts
		out = append(out, r)
	}
	return out, rows.Err()
}
