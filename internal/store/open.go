package store

import "context"

// WatchList is the method set shared by the Postgres and file backends.
type WatchList interface {
	List(ctx context.Context) ([]Asset, error)
	Get(ctx context.Context, label string) (*Asset, error)
	Add(ctx context.Context, a Asset) (bool, error)
	Delete(ctx context.Context, label string) (bool, error)
	UpdateRange(ctx context.Context, label string, high, low float64) (bool, error)
	Ping(ctx context.Context) error
	Close()
}

var (
	_ WatchList = (*Store)(nil)
	_ WatchList = (*FileStore)(nil)
)

// Open returns the Postgres store (migrated) when databaseURL is set and the
// JSON file store at path otherwise.
func Open(ctx context.Context, databaseURL, path string) (WatchList, error) {
	if databaseURL == "" {
		fs, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
	db, err := New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
