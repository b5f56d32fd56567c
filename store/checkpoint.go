// Package store defines checkpoint persistence for graph executions.
// Backends live in the memory, sqlite, redis and postgres subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a checkpoint does not exist.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint represents a saved state at a specific point in execution.
type Checkpoint struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	NodeName  string         `json:"node_name"`
	State     any            `json:"state"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version"`
}

// CheckpointStore defines the interface for checkpoint persistence.
// Serialized formats are backend-owned.
type CheckpointStore interface {
	// Save stores a checkpoint.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints for a thread, ordered by version.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Latest returns the highest-version checkpoint for a thread,
	// or ErrNotFound.
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	// Delete removes a checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for a thread.
	Clear(ctx context.Context, threadID string) error
}
