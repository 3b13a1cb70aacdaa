package preset

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory preset store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedPreset
	closed bool
}

type storedPreset struct {
	data      []byte
	updatedAt time.Time
}

// NewMemoryStore creates a new in-memory preset store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]storedPreset),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[name] = storedPreset{
		data:      stored,
		updatedAt: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	p, ok := m.data[name]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(p.data))
	copy(result, p.data)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data))
	for name, p := range m.data {
		infos = append(infos, Info{
			Name:      name,
			UpdatedAt: p.updatedAt,
			Size:      int64(len(p.data)),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, name)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}
