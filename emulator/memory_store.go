package emulator

import (
	"context"
	"sync"
	"time"
)

type memoryKey struct {
	kind string
	name string
}

type MemoryStore struct {
	mu       sync.RWMutex
	records  map[memoryKey]Record
	versions map[memoryKey]int64
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  map[memoryKey]Record{},
		versions: map[memoryKey]int64{},
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, kind string, name string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validateKey(kind, name); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[memoryKey{kind: kind, name: name}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *MemoryStore) Put(ctx context.Context, record Record, mode PutMode) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validatePut(record, mode); err != nil {
		return Record{}, err
	}
	key := memoryKey{kind: record.Kind, name: record.Name}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.records[key]
	if err := checkPut(exists, mode); err != nil {
		return Record{}, err
	}
	stored := cloneRecord(record)
	stored.Version = s.versions[key] + 1
	stored.UpdatedAt = s.now().UTC()
	s.records[key] = stored
	s.versions[key] = stored.Version
	return cloneRecord(stored), nil
}

func (s *MemoryStore) Delete(ctx context.Context, kind string, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateKey(kind, name); err != nil {
		return 0, err
	}
	key := memoryKey{kind: kind, name: name}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return 0, nil
	}
	delete(s.records, key)
	s.versions[key]++
	return s.versions[key], nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
