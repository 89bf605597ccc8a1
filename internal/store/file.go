package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the watch list in a JSON file. Every read-modify-write runs
// under one mutex so the monitor's new-high updates cannot race with chat
// commands and drop an entry.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates the parent directory of path if needed. The file
// itself is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create watch list dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Close() {}

// Ping reports whether the watch list file is readable.
func (f *FileStore) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.read()
	return err
}

func (f *FileStore) List(_ context.Context) ([]Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) Get(_ context.Context, label string) (*Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	assets, err := f.read()
	if err != nil {
		return nil, err
	}
	for i := range assets {
		if assets[i].Label == label {
			return &assets[i], nil
		}
	}
	return nil, ErrNotFound
}

// Add appends a. It returns false if the label or address is already taken.
func (f *FileStore) Add(_ context.Context, a Asset) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	assets, err := f.read()
	if err != nil {
		return false, err
	}
	for _, existing := range assets {
		if existing.Label == a.Label || existing.Address == a.Address {
			return false, nil
		}
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	return true, f.write(append(assets, a))
}

// Delete removes the asset with label. It returns false if none matched.
func (f *FileStore) Delete(_ context.Context, label string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	assets, err := f.read()
	if err != nil {
		return false, err
	}
	kept := assets[:0]
	for _, a := range assets {
		if a.Label != label {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(assets) {
		return false, nil
	}
	return true, f.write(kept)
}

// UpdateRange sets high and low for label. It returns false if label is unknown.
func (f *FileStore) UpdateRange(_ context.Context, label string, high, low float64) (bool, error) {
	if err := ValidateRange(high, low); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	assets, err := f.read()
	if err != nil {
		return false, err
	}
	for i := range assets {
		if assets[i].Label == label {
			assets[i].HighPrice = high
			assets[i].LowPrice = low
			assets[i].UpdatedAt = time.Now().UTC()
			return true, f.write(assets)
		}
	}
	return false, nil
}

// read must be called with mu held. A missing file is an empty list.
func (f *FileStore) read() ([]Asset, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Asset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watch list: %w", err)
	}
	if len(data) == 0 {
		return []Asset{}, nil
	}
	var assets []Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("decode watch list: %w", err)
	}
	return assets, nil
}

// write must be called with mu held. The file is replaced atomically.
func (f *FileStore) write(assets []Asset) error {
	data, err := json.MarshalIndent(assets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode watch list: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".watchlist-*")
	if err != nil {
		return fmt.Errorf("create temp watch list: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write watch list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close watch list: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace watch list: %w", err)
	}
	return nil
}
