package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "data", "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func TestFileStoreEmpty(t *testing.T) {
	fs := newTestFileStore(t)
	assets, err := fs.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(assets) != 0 {
		t.Errorf("len(List) = %d, want 0", len(assets))
	}
	if err := fs.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestFileStoreAddAndGet(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	ok, err := fs.Add(ctx, Asset{Address: "0xabc", Label: "PEPE", HighPrice: 1_000_000, LowPrice: 6000})
	if err != nil || !ok {
		t.Fatalf("Add = %v, %v; want true, nil", ok, err)
	}

	a, err := fs.Get(ctx, "PEPE")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.Address != "0xabc" || a.HighPrice != 1_000_000 || a.LowPrice != 6000 {
		t.Errorf("Get = %+v", a)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	if _, err := fs.Get(ctx, "WIF"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreAddDuplicate(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	if ok, _ := fs.Add(ctx, Asset{Address: "0xabc", Label: "PEPE", HighPrice: 100}); !ok {
		t.Fatal("first Add should succeed")
	}
	tests := []struct {
		name  string
		asset Asset
	}{
		{"same label", Asset{Address: "0xdef", Label: "PEPE", HighPrice: 100}},
		{"same address", Asset{Address: "0xabc", Label: "OTHER", HighPrice: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := fs.Add(ctx, tt.asset)
			if err != nil {
				t.Fatalf("Add error: %v", err)
			}
			if ok {
				t.Error("Add should reject duplicates")
			}
		})
	}

	assets, _ := fs.List(ctx)
	if len(assets) != 1 {
		t.Errorf("len(List) = %d, want 1", len(assets))
	}
}

func TestFileStoreAddInvalid(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	for _, a := range []Asset{
		{Label: "NOADDR", HighPrice: 1},
		{Address: "0x1"},
		{Address: "0x1", Label: "NEG", HighPrice: -1},
		{Address: "0x1", Label: "NAN", HighPrice: math.NaN()},
	} {
		if _, err := fs.Add(ctx, a); err == nil {
			t.Errorf("Add(%+v) expected error", a)
		}
	}
}

func TestFileStoreDelete(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	fs.Add(ctx, Asset{Address: "0x1", Label: "A", HighPrice: 10})
	fs.Add(ctx, Asset{Address: "0x2", Label: "B", HighPrice: 10})

	ok, err := fs.Delete(ctx, "A")
	if err != nil || !ok {
		t.Fatalf("Delete(A) = %v, %v", ok, err)
	}
	ok, err = fs.Delete(ctx, "A")
	if err != nil || ok {
		t.Errorf("second Delete(A) = %v, %v; want false, nil", ok, err)
	}

	assets, _ := fs.List(ctx)
	if len(assets) != 1 || assets[0].Label != "B" {
		t.Errorf("List after delete = %+v", assets)
	}
}

func TestFileStoreUpdateRange(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	fs.Add(ctx, Asset{Address: "0x1", Label: "PEPE", HighPrice: 10000, LowPrice: 5000})

	ok, err := fs.UpdateRange(ctx, "PEPE", 10_060_000, 5000)
	if err != nil || !ok {
		t.Fatalf("UpdateRange = %v, %v", ok, err)
	}
	a, _ := fs.Get(ctx, "PEPE")
	if a.HighPrice != 10_060_000 || a.LowPrice != 5000 {
		t.Errorf("after UpdateRange: %+v", a)
	}

	ok, err = fs.UpdateRange(ctx, "MISSING", 1, 0)
	if err != nil || ok {
		t.Errorf("UpdateRange(unknown) = %v, %v; want false, nil", ok, err)
	}

	if _, err := fs.UpdateRange(ctx, "PEPE", -1, 0); err == nil {
		t.Error("UpdateRange with negative high should fail")
	}
}

func TestFileStoreReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	legacy := `[
  {"token_address": "0xabc", "custom_name": "PEPE", "high_price": 1000000.0, "low_price": 6000.0}
]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	assets, err := fs.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(assets) != 1 || assets[0].Label != "PEPE" || assets[0].HighPrice != 1_000_000 {
		t.Errorf("List = %+v", assets)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	fs, _ := NewFileStore(path)

	if _, err := fs.List(context.Background()); err == nil {
		t.Error("List should fail on a corrupt file")
	}
	if err := fs.Ping(context.Background()); err == nil {
		t.Error("Ping should fail on a corrupt file")
	}
}

// Concurrent adds and range updates must not lose entries.
func TestFileStoreConcurrentWrites(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	fs.Add(ctx, Asset{Address: "0xbase", Label: "BASE", HighPrice: 1})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			fs.Add(ctx, Asset{Address: fmt.Sprintf("0x%d", i), Label: fmt.Sprintf("T%d", i), HighPrice: 10})
		}(i)
		go func(i int) {
			defer wg.Done()
			fs.UpdateRange(ctx, "BASE", float64(100+i), 0)
		}(i)
	}
	wg.Wait()

	assets, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(assets) != 21 {
		t.Errorf("len(List) = %d, want 21", len(assets))
	}
}
