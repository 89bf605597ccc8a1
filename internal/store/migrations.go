package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS assets (
    id BIGSERIAL PRIMARY KEY,
    address TEXT NOT NULL UNIQUE,
    label TEXT NOT NULL UNIQUE,
    high_price DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (high_price >= 0),
    low_price DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (low_price >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notifications (
    id BIGSERIAL PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    label TEXT NOT NULL,
    kind TEXT NOT NULL,
    level TEXT NOT NULL DEFAULT '',
    value DOUBLE PRECISION NOT NULL DEFAULT 0,
    message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS notifications_label_created_idx ON notifications (label, created_at DESC);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
