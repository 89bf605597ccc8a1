package dedup

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type tracker interface {
	ShouldAlert(ctx context.Context, label, level string) bool
	Record(ctx context.Context, label, level string)
	Clear(ctx context.Context, label string)
}

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	r, err := NewRedis("redis://"+mr.Addr(), "")
	if err != nil {
		mr.Close()
		t.Fatalf("NewRedis: %v", err)
	}
	return r, mr
}

func backends(t *testing.T) map[string]tracker {
	t.Helper()
	r, mr := setupTestRedis(t)
	t.Cleanup(func() {
		r.Close()
		mr.Close()
	})
	return map[string]tracker{
		"memory": NewMemory(),
		"redis":  r,
	}
}

func TestShouldAlertNewLabel(t *testing.T) {
	for name, tr := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if !tr.ShouldAlert(context.Background(), "PEPE", "retracement_61_8") {
				t.Error("ShouldAlert should return true for an unseen label")
			}
		})
	}
}

func TestRecordSuppressesSameLevel(t *testing.T) {
	for name, tr := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tr.Record(ctx, "PEPE", "retracement_61_8")

			if tr.ShouldAlert(ctx, "PEPE", "retracement_61_8") {
				t.Error("ShouldAlert should return false for the recorded level")
			}
			if !tr.ShouldAlert(ctx, "PEPE", "retracement_50_0") {
				t.Error("ShouldAlert should return true for a different level")
			}
			if !tr.ShouldAlert(ctx, "WIF", "retracement_61_8") {
				t.Error("labels must not share state")
			}
		})
	}
}

func TestClear(t *testing.T) {
	for name, tr := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tr.Record(ctx, "PEPE", "retracement_61_8")
			tr.Clear(ctx, "PEPE")

			if !tr.ShouldAlert(ctx, "PEPE", "retracement_61_8") {
				t.Error("ShouldAlert should return true after Clear")
			}
		})
	}
}

func TestRecordOverwrites(t *testing.T) {
	for name, tr := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tr.Record(ctx, "PEPE", "retracement_61_8")
			tr.Record(ctx, "PEPE", "retracement_50_0")

			if !tr.ShouldAlert(ctx, "PEPE", "retracement_61_8") {
				t.Error("61.8 should alert again once 50.0 was recorded")
			}
			if tr.ShouldAlert(ctx, "PEPE", "retracement_50_0") {
				t.Error("50.0 is the last recorded level")
			}
		})
	}
}

func TestMemoryLast(t *testing.T) {
	m := NewMemory()
	if _, ok := m.Last("PEPE"); ok {
		t.Fatal("Last should report absent for a new label")
	}
	m.Record(context.Background(), "PEPE", "retracement_23_6")
	if lvl, ok := m.Last("PEPE"); !ok || lvl != "retracement_23_6" {
		t.Errorf("Last = %q, %v", lvl, ok)
	}
}

func TestRedisKeyLayout(t *testing.T) {
	r, mr := setupTestRedis(t)
	defer mr.Close()
	defer r.Close()

	r.Record(context.Background(), "PEPE", "retracement_78_6")
	got, err := mr.Get("fib:last_level:PEPE")
	if err != nil {
		t.Fatalf("miniredis Get: %v", err)
	}
	if got != "retracement_78_6" {
		t.Errorf("stored value = %q, want %q", got, "retracement_78_6")
	}
}

func TestRedisShouldAlertFailClosed(t *testing.T) {
	r, mr := setupTestRedis(t)
	defer r.Close()

	// Stop Redis to simulate failure
	mr.Close()

	if r.ShouldAlert(context.Background(), "PEPE", "retracement_61_8") {
		t.Error("ShouldAlert should return false (fail-closed) when Redis is down")
	}
}
