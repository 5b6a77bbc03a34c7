package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// PGRequestLogStore implements store.RequestLogStore backed by Postgres.
type PGRequestLogStore struct {
	db *sql.DB
}

func NewPGRequestLogStore(db *sql.DB) *PGRequestLogStore {
	return &PGRequestLogStore{db: db}
}

func (s *PGRequestLogStore) Log(ctx context.Context, entry *store.RequestLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = store.GenNewID()
	}
	entry.CreatedAt = nowUTC()

	var agentID interface{}
	if entry.AgentID != uuid.Nil {
		agentID = entry.AgentID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_logs (id, agent_id, owner_id, category, request, response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, agentID, entry.OwnerID, entry.Category,
		jsonOrNull(entry.Request), jsonOrNull(entry.Response), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}
