package store

import (
	"context"
	"sync"

	"github.com/prepdesk/session-backend/internal/model"
)

// MemoryProgressStore is an in-process ProgressStore used in tests and
// in redis-less development runs.
type MemoryProgressStore struct {
	mu   sync.Mutex
	snap *model.Snapshot
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{}
}

func (s *MemoryProgressStore) Load(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, nil
	}
	cp := *s.snap
	return &cp, nil
}

func (s *MemoryProgressStore) Save(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	s.snap = &cp
	return nil
}

func (s *MemoryProgressStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}
