package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RequestLogEntry is one recorded provider exchange (prompt/response pair),
// keyed by owner and agent for later auditing.
type RequestLogEntry struct {
	ID        uuid.UUID       `json:"id"`
	AgentID   uuid.UUID       `json:"agent_id"`
	OwnerID   string          `json:"owner_id"`
	Category  string          `json:"category"`
	Request   json.RawMessage `json:"request"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// RequestLogStore records provider exchanges best-effort. Implementations
// must never let a logging failure escape: callers treat Log as
// fire-and-forget and check the error only to slog it.
type RequestLogStore interface {
	Log(ctx context.Context, entry *RequestLogEntry) error
}
