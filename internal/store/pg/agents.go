package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// PGAgentStore implements store.AgentStore backed by Postgres.
type PGAgentStore struct {
	db *sql.DB
}

func NewPGAgentStore(db *sql.DB) *PGAgentStore {
	return &PGAgentStore{db: db}
}

const agentSelectCols = `id, agent_key, display_name, provider, model,
		 memory_summary, status, created_at, updated_at`

func (s *PGAgentStore) CreateAgent(ctx context.Context, agent *store.AgentProfile) error {
	if agent.ID == uuid.Nil {
		agent.ID = store.GenNewID()
	}
	if agent.Status == "" {
		agent.Status = "active"
	}
	now := nowUTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, agent_key, display_name, provider, model, memory_summary, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		agent.ID, agent.AgentKey, agent.DisplayName, agent.Provider, agent.Model,
		agent.MemorySummary, agent.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (s *PGAgentStore) GetAgent(ctx context.Context, id uuid.UUID) (*store.AgentProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentSelectCols+`
		 FROM agents WHERE id = $1 AND deleted_at IS NULL`, id)
	a, err := scanAgentRow(row)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", id, store.ErrNotFound)
	}
	return a, nil
}

func (s *PGAgentStore) GetAgentByKey(ctx context.Context, agentKey string) (*store.AgentProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentSelectCols+`
		 FROM agents WHERE agent_key = $1 AND deleted_at IS NULL`, agentKey)
	a, err := scanAgentRow(row)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", agentKey, store.ErrNotFound)
	}
	return a, nil
}

func (s *PGAgentStore) SetMemorySummary(ctx context.Context, id uuid.UUID, summary *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET memory_summary = $1, updated_at = $2
		 WHERE id = $3 AND deleted_at IS NULL`,
		summary, nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set memory summary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAgentRow(row rowScanner) (*store.AgentProfile, error) {
	var a store.AgentProfile
	var summary sql.NullString
	if err := row.Scan(&a.ID, &a.AgentKey, &a.DisplayName, &a.Provider, &a.Model,
		&summary, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if summary.Valid {
		a.MemorySummary = &summary.String
	}
	return &a, nil
}
