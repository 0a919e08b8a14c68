package store

import "context"

// MemoryKV is a map-backed KV for tests and embedding hosts that do
// not need durability.
type MemoryKV struct {
	entries map[string]string
}

// NewMemoryKV creates an empty in-memory key-value store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.entries[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.entries[key] = value
	return nil
}

// Remove deletes the key.
func (m *MemoryKV) Remove(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}
