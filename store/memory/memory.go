// Package memory provides an in-memory checkpoint store, suitable for
// development and tests. Checkpoints do not survive process restarts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Rafi99769/ai-agent-development-course/store"
)

// MemoryCheckpointStore keeps checkpoints in a map guarded by a RWMutex.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
}

// NewMemoryCheckpointStore creates an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
	}
}

// Save stores a copy of the checkpoint, overwriting any previous one with
// the same ID.
func (s *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil {
		return fmt.Errorf("checkpoint is nil")
	}
	if checkpoint.ID == "" {
		return fmt.Errorf("checkpoint ID is empty")
	}

	cp := *checkpoint
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[cp.ID] = &cp
	return nil
}

// Load returns the checkpoint with the given ID.
func (s *MemoryCheckpointStore) Load(_ context.Context, id string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[id]
	if !ok {
		return nil, fmt.Errorf("checkpoint %s: %w", id, store.ErrNotFound)
	}
	copied := *cp
	return &copied, nil
}

// List returns all checkpoints of a thread, sorted by ascending version.
func (s *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Checkpoint
	for _, cp := range s.checkpoints {
		if cp.ThreadID == threadID {
			copied := *cp
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})
	return result, nil
}

// Latest returns the highest-version checkpoint of a thread, or nil when
// the thread has none.
func (s *MemoryCheckpointStore) Latest(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	all, err := s.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

// Delete removes the checkpoint with the given ID. Missing IDs are a no-op.
func (s *MemoryCheckpointStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, id)
	return nil
}

// Clear removes every checkpoint of a thread.
func (s *MemoryCheckpointStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cp := range s.checkpoints {
		if cp.ThreadID == threadID {
			delete(s.checkpoints, id)
		}
	}
	return nil
}
