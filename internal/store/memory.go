package store

import (
	"io/fs"
	"maps"
	"slices"
	"sync"

	"tempo-go/internal/tempo"
)

// memBackend keeps encoded days in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type memBackend struct {
	mu   sync.RWMutex
	data map[tempo.Day][]byte
}

// NewMemoryStore creates an empty in-memory store. Day contents still go
// through the YAML codec and the optional cipher.
func NewMemoryStore(cipher tempo.Cipher) *Store {
	return &Store{
		backend: &memBackend{data: make(map[tempo.Day][]byte)},
		cipher:  cipher,
	}
}

func (m *memBackend) describe(day tempo.Day) string {
	return "memory:" + day.String()
}

func (m *memBackend) read(day tempo.Day) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[day]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return slices.Clone(data), nil
}

func (m *memBackend) write(day tempo.Day, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[day] = slices.Clone(data)
	return nil
}

func (m *memBackend) remove(day tempo.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[day]; !ok {
		return fs.ErrNotExist
	}
	delete(m.data, day)
	return nil
}

func (m *memBackend) days() ([]tempo.Day, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.SortedFunc(maps.Keys(m.data), tempo.Day.Compare), nil
}
