package draft

import (
	"context"
	"slices"
	"sync"
	"time"
)

type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]Record
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string]Record),
		now:    time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, key string, values Values) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values.Categories = slices.Clone(values.Categories)
	if values.Categories == nil {
		values.Categories = []int64{}
	}
	rec := Record{Key: key, Values: values, SavedAt: s.now().UTC()}
	s.drafts[key] = rec
	return rec, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.drafts[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.drafts))
	for _, rec := range s.drafts {
		records = append(records, rec)
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *MemoryStore) Latest(ctx context.Context) (Record, error) {
	records, _ := s.List(ctx)
	if len(records) == 0 {
		return Record{}, ErrNotFound
	}
	return records[0], nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[key]; !ok {
		return ErrNotFound
	}
	delete(s.drafts, key)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.drafts)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortNewestFirst(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
			return c
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
}
