package store

import (
	"context"
	"sync"

	"ble-atlas/internal/models"
)

// MemoryObserverStore keeps observer records in process memory. It
// backs the STORAGE_DRIVER=memory mode and the test suite.
type MemoryObserverStore struct {
	mu      sync.Mutex
	records map[string]models.ObserverRecord
}

func NewMemoryObserverStore() *MemoryObserverStore {
	return &MemoryObserverStore{
		records: make(map[string]models.ObserverRecord),
	}
}

func (m *MemoryObserverStore) LoadAll(ctx context.Context) (map[string]models.ObserverRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]models.ObserverRecord, len(m.records))
	for id, rec := range m.records {
		out[id] = rec
	}
	return out, nil
}

func (m *MemoryObserverStore) Save(ctx context.Context, record models.ObserverRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[record.ID] = record
	return nil
}

func (m *MemoryObserverStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

// MemoryScaleStore holds the single scale calibration record in
// memory.
type MemoryScaleStore struct {
	mu     sync.Mutex
	record *models.ScaleRecord
}

func NewMemoryScaleStore() *MemoryScaleStore {
	return &MemoryScaleStore{}
}

func (m *MemoryScaleStore) Load(ctx context.Context) (*models.ScaleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record == nil {
		return nil, nil
	}
	rec := *m.record
	return &rec, nil
}

func (m *MemoryScaleStore) Save(ctx context.Context, record models.ScaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = &record
	return nil
}

var (
	_ ObserverStore = (*MemoryObserverStore)(nil)
	_ ScaleStore    = (*MemoryScaleStore)(nil)
)
