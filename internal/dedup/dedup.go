// Package dedup remembers, per watched asset, the last Fibonacci level an
// alert fired for, so the same level never alerts twice in a row.
package dedup

import (
	"context"
	"sync"
)

// Memory is the process-local alert state. It is not persisted: after a
// restart the first matching level alerts again.
type Memory struct {
	mu   sync.Mutex
	last map[string]string
}

// NewMemory returns an empty in-process tracker.
func NewMemory() *Memory {
	return &Memory{last: make(map[string]string)}
}

// ShouldAlert returns true unless level is the last level recorded for label.
func (m *Memory) ShouldAlert(_ context.Context, label, level string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.last[label]
	return !ok || prev != level
}

// Record marks level as the last alerted level for label.
func (m *Memory) Record(_ context.Context, label, level string) {
	m.mu.Lock()
	m.last[label] = level
	m.mu.Unlock()
}

// Clear forgets label so the next matching level alerts again.
func (m *Memory) Clear(_ context.Context, label string) {
	m.mu.Lock()
	delete(m.last, label)
	m.mu.Unlock()
}

// Last returns the recorded level for label, if any.
func (m *Memory) Last(label string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lvl, ok := m.last[label]
	return lvl, ok
}
