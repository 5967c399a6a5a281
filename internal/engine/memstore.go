package engine

import (
	"encoding/json"
	"sync"
)

// MemoryCheckpointStore keeps checkpoints in process memory. It serves runs
// that do not need durability and the engine tests; production scans use the
// sqlite-backed store.
type MemoryCheckpointStore struct {
	mu   sync.Mutex
	data map[CheckpointKey][]byte
}

func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{data: make(map[CheckpointKey][]byte)}
}

func (m *MemoryCheckpointStore) Load(key CheckpointKey) (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, ErrCheckpointNotFound
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (m *MemoryCheckpointStore) Save(cp *Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[cp.Key()] = raw
	return nil
}

func (m *MemoryCheckpointStore) Delete(key CheckpointKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
