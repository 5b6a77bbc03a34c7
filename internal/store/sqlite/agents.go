package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// --- store.AgentStore ---

func (s *Store) CreateAgent(ctx context.Context, agent *store.AgentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agent.ID == uuid.Nil {
		agent.ID = store.GenNewID()
	}
	if agent.Status == "" {
		agent.Status = "active"
	}
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	var summary interface{}
	if agent.MemorySummary != nil {
		summary = *agent.MemorySummary
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, agent_key, display_name, provider, model, memory_summary, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID.String(), agent.AgentKey, agent.DisplayName, agent.Provider, agent.Model,
		summary, agent.Status, now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (s *Store) GetAgent(ctx context.Context, id uuid.UUID) (*store.AgentProfile, error) {
	return s.getAgent(ctx, "id = ?", id.String())
}

func (s *Store) GetAgentByKey(ctx context.Context, agentKey string) (*store.AgentProfile, error) {
	return s.getAgent(ctx, "agent_key = ?", agentKey)
}

func (s *Store) getAgent(ctx context.Context, where string, arg interface{}) (*store.AgentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_key, display_name, provider, model, memory_summary, status, created_at, updated_at
		 FROM agents WHERE `+where, arg)

	var a store.AgentProfile
	var id string
	var summary sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&id, &a.AgentKey, &a.DisplayName, &a.Provider, &a.Model,
		&summary, &a.Status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("agent %v: %w", arg, store.ErrNotFound)
		}
		return nil, err
	}
	a.ID, _ = uuid.Parse(id)
	if summary.Valid {
		a.MemorySummary = &summary.String
	}
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	a.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &a, nil
}

func (s *Store) SetMemorySummary(ctx context.Context, id uuid.UUID, summary *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var val interface{}
	if summary != nil {
		val = *summary
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE agents SET memory_summary = ?, updated_at = ? WHERE id = ?",
		val, time.Now().UTC().Unix(), id.String())
	if err != nil {
		return fmt.Errorf("set memory summary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- store.RequestLogStore ---

func (s *Store) Log(ctx context.Context, entry *store.RequestLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = store.GenNewID()
	}
	entry.CreatedAt = time.Now().UTC()

	var agentID interface{}
	if entry.AgentID != uuid.Nil {
		agentID = entry.AgentID.String()
	}
	var req, resp interface{}
	if entry.Request != nil {
		req = string(entry.Request)
	}
	if entry.Response != nil {
		resp = string(entry.Response)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_logs (id, agent_id, owner_id, category, request, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), agentID, entry.OwnerID, entry.Category, req, resp, entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}
