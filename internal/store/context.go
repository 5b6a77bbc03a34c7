package store

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// OwnerIDKey is the context key for the external owner ID (TEXT, free-form).
	OwnerIDKey contextKey = "mnemo_owner_id"
	// AgentIDKey is the context key for the agent UUID.
	AgentIDKey contextKey = "mnemo_agent_id"
)

// WithOwnerID returns a new context with the given owner ID.
func WithOwnerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, OwnerIDKey, id)
}

// OwnerIDFromContext extracts the owner ID from context. Returns "" if not set.
func OwnerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(OwnerIDKey).(string); ok {
		return v
	}
	return ""
}

// WithAgentID returns a new context with the given agent UUID.
func WithAgentID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, AgentIDKey, id)
}

// AgentIDFromContext extracts the agent UUID from context. Returns uuid.Nil if not set.
func AgentIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(AgentIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
