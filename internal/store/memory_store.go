package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrEmptyKeyPoint is returned when a record is created with no key point.
	ErrEmptyKeyPoint = errors.New("memory record requires a non-empty key point")

	// ErrMissingEmbedding is returned when a record is created without an
	// embedding. This is the one hard invariant inside the memory core.
	ErrMissingEmbedding = errors.New("memory record requires an embedding")

	// ErrNotFound is returned for lookups and edits of unknown ids.
	ErrNotFound = errors.New("memory record not found")
)

// MemoryStore is the relational table of memory records. Every query is
// scoped by (agentID, ownerID); the caller is assumed to have validated
// both identifiers.
type MemoryStore interface {
	// Insert persists a new record and bumps the owner's update counter.
	// The record must carry a key point and an embedding; id and
	// timestamps are assigned by the store.
	Insert(ctx context.Context, rec *MemoryRecord) error

	// ListByOwner returns the owner's records newest first.
	// limit <= 0 means no limit.
	ListByOwner(ctx context.Context, agentID uuid.UUID, ownerID string, limit int) ([]MemoryRecord, error)

	// NearestNeighbors returns up to topK records whose embedding has
	// cosine similarity >= minSimilarity with the query vector, most
	// similar first. Rows without an embedding are excluded.
	NearestNeighbors(ctx context.Context, query []float32, agentID uuid.UUID, ownerID string, topK int, minSimilarity float64) ([]MemoryRecord, error)

	// UpdateKeyPoint rewrites a record's key point in place (direct user
	// edit). Embeddings are never updated in place.
	UpdateKeyPoint(ctx context.Context, id uuid.UUID, keyPoint string) (*MemoryRecord, error)

	// Delete removes a single record (direct user deletion).
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteMany removes a set of records in one operation. Used by
	// compaction after the replacement summary is durably created.
	DeleteMany(ctx context.Context, ids []uuid.UUID) error

	// UpdateCount returns the owner's write counter since the last
	// compaction.
	UpdateCount(ctx context.Context, agentID uuid.UUID, ownerID string) (int, error)

	// ResetUpdateCount zeroes the owner's write counter.
	ResetUpdateCount(ctx context.Context, agentID uuid.UUID, ownerID string) error

	Close() error
}

// AgentStore is the slice of the agent table the memory engine needs.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent *AgentProfile) error
	GetAgent(ctx context.Context, id uuid.UUID) (*AgentProfile, error)
	GetAgentByKey(ctx context.Context, agentKey string) (*AgentProfile, error)

	// SetMemorySummary persists the client-facing memory summary on the
	// agent's profile. nil clears it.
	SetMemorySummary(ctx context.Context, id uuid.UUID, summary *string) error
}
