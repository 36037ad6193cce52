package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryTree is an in-memory Tree. It backs tests and ephemeral
// deployments; contents do not survive the process.
type MemoryTree struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ Tree = (*MemoryTree)(nil)

// NewMemoryTree returns an empty in-memory tree.
func NewMemoryTree() *MemoryTree {
	return &MemoryTree{entries: make(map[string][]byte)}
}

func (t *MemoryTree) Get(_ context.Context, key string) ([]byte, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	value, ok := t.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (t *MemoryTree) Put(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = stored
	return nil
}

func (t *MemoryTree) Delete(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[key]; !ok {
		return false, nil
	}
	delete(t.entries, key)
	return true, nil
}

func (t *MemoryTree) Contains(_ context.Context, key string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.entries[key]
	return ok, nil
}

func (t *MemoryTree) Scan(_ context.Context, fn func(key string, value []byte) error) error {
	t.mu.RLock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snapshot := make([][]byte, len(keys))
	for i, k := range keys {
		value := t.entries[k]
		out := make([]byte, len(value))
		copy(out, value)
		snapshot[i] = out
	}
	t.mu.RUnlock()

	for i, k := range keys {
		if err := fn(k, snapshot[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *MemoryTree) Len(_ context.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries), nil
}

func (t *MemoryTree) GenerateID() string {
	return uuid.New().String()
}
