package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions in a PostgreSQL table.
//
// Expected schema:
//
//	CREATE TABLE sessions (
//	    id             TEXT PRIMARY KEY,
//	    token          TEXT NOT NULL UNIQUE,
//	    user_id        TEXT,
//	    data           JSONB NOT NULL DEFAULT '{}',
//	    flash          JSONB NOT NULL DEFAULT '{}',
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    last_active_at TIMESTAMPTZ NOT NULL,
//	    expires_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	data, flash, err := marshalMaps(s)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO sessions (id, token, user_id, data, flash, created_at, last_active_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Token, s.UserID, data, flash, s.CreatedAt, s.LastActiveAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("session: create: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, token string) (*Session, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, token, user_id, data, flash, created_at, last_active_at, expires_at
		 FROM sessions WHERE token = $1`,
		token,
	)

	var (
		s           Session
		data, flash []byte
	)
	err := row.Scan(&s.ID, &s.Token, &s.UserID, &data, &flash, &s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}

	if err := json.Unmarshal(data, &s.Values); err != nil {
		return nil, fmt.Errorf("session: decode values: %w", err)
	}
	if err := json.Unmarshal(flash, &s.Flash); err != nil {
		return nil, fmt.Errorf("session: decode flash: %w", err)
	}

	if s.IsExpired() {
		_ = p.Delete(ctx, s.ID)
		return nil, ErrExpired
	}

	return &s, nil
}

func (p *PostgresStore) Update(ctx context.Context, s *Session) error {
	data, flash, err := marshalMaps(s)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE sessions
		 SET token = $2, user_id = $3, data = $4, flash = $5, last_active_at = $6, expires_at = $7
		 WHERE id = $1`,
		s.ID, s.Token, s.UserID, data, flash, s.LastActiveAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("session: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("session: delete by user: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("session: delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

func marshalMaps(s *Session) (data, flash []byte, err error) {
	if data, err = json.Marshal(s.Values); err != nil {
		return nil, nil, fmt.Errorf("session: encode values: %w", err)
	}
	if flash, err = json.Marshal(s.Flash); err != nil {
		return nil, nil, fmt.Errorf("session: encode flash: %w", err)
	}
	return data, flash, nil
}
