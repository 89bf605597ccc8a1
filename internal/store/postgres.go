package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed watch list. Each mutation is a single
// statement, so concurrent writers never lose an entry.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Assets ---

const assetColumns = `address, label, high_price, low_price, created_at, updated_at`

func scanAsset(row pgx.Row) (*Asset, error) {
	var a Asset
	if err := row.Scan(&a.Address, &a.Label, &a.HighPrice, &a.LowPrice, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) List(ctx context.Context) ([]Asset, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

func (s *Store) Get(ctx context.Context, label string) (*Asset, error) {
	a, err := scanAsset(s.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE label = $1`, label))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// Add inserts a. It returns false if the label or address already exists.
func (s *Store) Add(ctx context.Context, a Asset) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO assets (address, label, high_price, low_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		a.Address, a.Label, a.HighPrice, a.LowPrice)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Delete(ctx context.Context, label string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assets WHERE label = $1`, label)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateRange sets high and low for label. It returns false if label is unknown.
func (s *Store) UpdateRange(ctx context.Context, label string, high, low float64) (bool, error) {
	if err := ValidateRange(high, low); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE assets SET high_price = $2, low_price = $3, updated_at = now()
		WHERE label = $1`, label, high, low)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// --- Notifications ---

// Notification is one alert the monitor delivered.
type Notification struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Label     string    `json:"label"`
	Kind      string    `json:"kind"`
	Level     string    `json:"level,omitempty"`
	Value     float64   `json:"value"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) LogNotification(ctx context.Context, n Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (chat_id, label, kind, level, value, message)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ChatID, n.Label, n.Kind, n.Level, n.Value, n.Message)
	return err
}

// ListNotifications returns the most recent notifications, newest first.
// An empty label matches every asset.
func (s *Store) ListNotifications(ctx context.Context, label string, limit int) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chat_id, label, kind, level, value, message, created_at
		FROM notifications
		WHERE $1 = '' OR label = $1
		ORDER BY created_at DESC
		LIMIT $2`, label, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.ChatID, &n.Label, &n.Kind, &n.Level, &n.Value, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, n)
	}
	return logs, rows.Err()
}

// CleanupOldNotifications deletes notifications older than maxAge.
func (s *Store) CleanupOldNotifications(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
