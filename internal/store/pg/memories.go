package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// PGMemoryStore implements store.MemoryStore backed by Postgres + pgvector.
type PGMemoryStore struct {
	db *sql.DB
}

func NewPGMemoryStore(db *sql.DB) *PGMemoryStore {
	return &PGMemoryStore{db: db}
}

const memorySelectCols = `id, agent_id, owner_id, key_point, context, embedding, created_at, updated_at`

func (s *PGMemoryStore) Insert(ctx context.Context, rec *store.MemoryRecord) error {
	if strings.TrimSpace(rec.KeyPoint) == "" {
		return store.ErrEmptyKeyPoint
	}
	if len(rec.Embedding) == 0 {
		return store.ErrMissingEmbedding
	}
	if len(rec.Embedding) != store.EmbeddingDims {
		// Older embedding models produce different sizes.
		slog.Warn("memory embedding dimension mismatch",
			"got", len(rec.Embedding), "want", store.EmbeddingDims)
	}

	if rec.ID == uuid.Nil {
		rec.ID = store.GenNewID()
	}
	now := nowUTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, agent_id, owner_id, key_point, context, embedding, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::vector, $7, $8)`,
		rec.ID, rec.AgentID, rec.OwnerID, rec.KeyPoint, jsonOrEmpty(ctxJSON),
		vectorToString(rec.Embedding), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	// Counter bump rides the same transaction so a failed insert never
	// advances the compaction trigger.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO memory_counters (agent_id, owner_id, update_count, updated_at)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT (agent_id, owner_id)
		 DO UPDATE SET update_count = memory_counters.update_count + 1, updated_at = EXCLUDED.updated_at`,
		rec.AgentID, rec.OwnerID, now,
	)
	if err != nil {
		return fmt.Errorf("bump update counter: %w", err)
	}

	return tx.Commit()
}

func (s *PGMemoryStore) ListByOwner(ctx context.Context, agentID uuid.UUID, ownerID string, limit int) ([]store.MemoryRecord, error) {
	q := `SELECT ` + memorySelectCols + `
		 FROM memories WHERE agent_id = $1 AND owner_id = $2
		 ORDER BY created_at DESC`
	args := []interface{}{agentID, ownerID}
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	return scanMemoryRows(rows)
}

func (s *PGMemoryStore) NearestNeighbors(ctx context.Context, query []float32, agentID uuid.UUID, ownerID string, topK int, minSimilarity float64) ([]store.MemoryRecord, error) {
	if len(query) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}
	vecStr := vectorToString(query)

	// pgvector <=> is cosine distance; similarity = 1 - distance.
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memorySelectCols+`
		 FROM memories
		 WHERE agent_id = $1 AND owner_id = $2 AND embedding IS NOT NULL
		 AND 1 - (embedding <=> $3::vector) >= $4
		 ORDER BY embedding <=> $5::vector
		 LIMIT $6`,
		agentID, ownerID, vecStr, minSimilarity, vecStr, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	defer rows.Close()

	return scanMemoryRows(rows)
}

func (s *PGMemoryStore) UpdateKeyPoint(ctx context.Context, id uuid.UUID, keyPoint string) (*store.MemoryRecord, error) {
	if strings.TrimSpace(keyPoint) == "" {
		return nil, store.ErrEmptyKeyPoint
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE memories SET key_point = $1, updated_at = $2 WHERE id = $3
		 RETURNING `+memorySelectCols,
		keyPoint, nowUTC(), id,
	)
	rec, err := scanMemoryRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update key point: %w", err)
	}
	return rec, nil
}

func (s *PGMemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PGMemoryStore) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM memories WHERE id IN (%s)", strings.Join(placeholders, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("delete memories: %w", err)
	}
	return nil
}

func (s *PGMemoryStore) UpdateCount(ctx context.Context, agentID uuid.UUID, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT update_count FROM memory_counters WHERE agent_id = $1 AND owner_id = $2",
		agentID, ownerID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read update counter: %w", err)
	}
	return count, nil
}

func (s *PGMemoryStore) ResetUpdateCount(ctx context.Context, agentID uuid.UUID, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memory_counters SET update_count = 0, updated_at = $1
		 WHERE agent_id = $2 AND owner_id = $3`,
		nowUTC(), agentID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("reset update counter: %w", err)
	}
	return nil
}

func (s *PGMemoryStore) Close() error { return nil }

// --- Row scanning ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMemoryRow(row rowScanner) (*store.MemoryRecord, error) {
	var rec store.MemoryRecord
	var ctxJSON []byte
	var emb []byte
	if err := row.Scan(&rec.ID, &rec.AgentID, &rec.OwnerID, &rec.KeyPoint,
		&ctxJSON, &emb, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if len(ctxJSON) > 0 {
		json.Unmarshal(ctxJSON, &rec.Context)
	}
	rec.Embedding = scanVector(emb)
	return &rec, nil
}

func scanMemoryRows(rows *sql.Rows) ([]store.MemoryRecord, error) {
	var result []store.MemoryRecord
	for rows.Next() {
		rec, err := scanMemoryRow(rows)
		if err != nil {
			continue
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}
