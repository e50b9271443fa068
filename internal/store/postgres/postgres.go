// Package postgres is a pgx-backed store.Store for deployments that
// outgrow the single-file document. State stays a JSONB blob per user
// so the replace-wholesale sync semantics are identical to the other
// backends.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/store"
)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and runs the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username      TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		state         JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id         BIGSERIAL PRIMARY KEY,
		level      TEXT NOT NULL,
		username   TEXT NOT NULL,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_level ON reviews(level, created_at DESC);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	);
	INSERT INTO meta (key, value) VALUES ('total_time', 0)
		ON CONFLICT (key) DO NOTHING;
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT username, password_hash, state FROM users WHERE username = $1`, username,
	).Scan(&u.Username, &u.PasswordHash, &u.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, password_hash, state) VALUES ($1, $2, $3)`,
		user.Username, user.PasswordHash, user.State,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) PutUserState(ctx context.Context, username string, state models.State) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET state = $1 WHERE username = $2`, state, username,
	)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddTotalTime(ctx context.Context, delta int) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`UPDATE meta SET value = value + $1 WHERE key = 'total_time' RETURNING value`, delta,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("add total time: %w", err)
	}
	return total, nil
}

func (s *Store) TotalTime(ctx context.Context) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM meta WHERE key = 'total_time'`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total time: %w", err)
	}
	return total, nil
}

func (s *Store) AppendReview(ctx context.Context, review models.Review) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reviews (level, username, text, created_at) VALUES ($1, $2, $3, $4)`,
		string(review.Level), review.Username, review.Text, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append review: %w", err)
	}
	return nil
}

func (s *Store) ReviewsByLevel(ctx context.Context, level models.CardLevel) ([]models.Review, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT level, username, text, created_at FROM reviews
		 WHERE level = $1 ORDER BY created_at DESC, id DESC`, string(level),
	)
	if err != nil {
		return nil, fmt.Errorf("reviews by level: %w", err)
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var r models.Review
		var lvl string
		if err := rows.Scan(&lvl, &r.Username, &r.Text, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.Level = models.CardLevel(lvl)
		out = append(out, r)
	}
	return out, rows.Err()
}
