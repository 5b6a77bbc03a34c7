package store

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDims is the platform-wide embedding dimension. The pgvector
// column is declared with this size; rows written by older embedding
// models may deviate and are tolerated (logged, not rejected).
const EmbeddingDims = 1536

// GenNewID generates a new UUID v7 (time-ordered).
func GenNewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// MemoryContext is the provenance metadata attached to a memory record.
// It is written once at creation time and passed through unchanged; the
// engine never branches on its contents.
type MemoryContext struct {
	SessionID    string `json:"session_id"`
	SessionName  string `json:"session_name,omitempty"`
	MessageCount int    `json:"message_count"`
}

// MemoryRecord is a single durable fact about an owner, scoped to one agent.
type MemoryRecord struct {
	ID        uuid.UUID     `json:"id"`
	AgentID   uuid.UUID     `json:"agent_id"`
	OwnerID   string        `json:"owner_id"`
	KeyPoint  string        `json:"key_point"`
	Context   MemoryContext `json:"context"`
	Embedding []float32     `json:"embedding,omitempty"` // nil on legacy rows
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// AgentProfile is the persisted agent row. Only the fields the memory
// engine touches are modeled here; the wider platform owns the rest.
type AgentProfile struct {
	ID            uuid.UUID `json:"id"`
	AgentKey      string    `json:"agent_key"`
	DisplayName   string    `json:"display_name"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	MemorySummary *string   `json:"memory_summary,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
