// Package sqlite is the standalone-mode store: a single-file database
// holding memory records, agent profiles, per-owner update counters and
// the provider request log. Vector search runs in process since SQLite
// has no native vector type; embeddings are stored as JSON arrays.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mnemo-ai/mnemo/internal/memory"
	"github.com/mnemo-ai/mnemo/internal/store"
)

// Store implements store.MemoryStore, store.AgentStore and
// store.RequestLogStore on a single SQLite file.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the database at the given path and initializes
// the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("memory store opened", "path", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			agent_key TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			memory_summary TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			key_point TEXT NOT NULL,
			context TEXT NOT NULL DEFAULT '{}',
			embedding TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(agent_id, owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS memory_counters (
			agent_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			update_count INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (agent_id, owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS request_logs (
			id TEXT PRIMARY KEY,
			agent_id TEXT,
			owner_id TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			request TEXT,
			response TEXT,
			created_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}

	return nil
}

// --- store.MemoryStore ---

func (s *Store) Insert(ctx context.Context, rec *store.MemoryRecord) error {
	if strings.TrimSpace(rec.KeyPoint) == "" {
		return store.ErrEmptyKeyPoint
	}
	if len(rec.Embedding) == 0 {
		return store.ErrMissingEmbedding
	}
	if len(rec.Embedding) != store.EmbeddingDims {
		slog.Warn("memory embedding dimension mismatch",
			"got", len(rec.Embedding), "want", store.EmbeddingDims)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = store.GenNewID()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	embJSON, err := json.Marshal(rec.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, agent_id, owner_id, key_point, context, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.AgentID.String(), rec.OwnerID, rec.KeyPoint,
		string(ctxJSON), string(embJSON), now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memory_counters (agent_id, owner_id, update_count, updated_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (agent_id, owner_id)
		 DO UPDATE SET update_count = update_count + 1, updated_at = excluded.updated_at`,
		rec.AgentID.String(), rec.OwnerID, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("bump update counter: %w", err)
	}

	return tx.Commit()
}

func (s *Store) ListByOwner(ctx context.Context, agentID uuid.UUID, ownerID string, limit int) ([]store.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := `SELECT id, agent_id, owner_id, key_point, context, embedding, created_at, updated_at
		 FROM memories WHERE agent_id = ? AND owner_id = ?
		 ORDER BY created_at DESC, id DESC`
	args := []interface{}{agentID.String(), ownerID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	return scanMemoryRows(rows)
}

func (s *Store) NearestNeighbors(ctx context.Context, query []float32, agentID uuid.UUID, ownerID string, topK int, minSimilarity float64) ([]store.MemoryRecord, error) {
	if len(query) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	// No vector index in SQLite; load the owner's rows and score in process.
	all, err := s.ListByOwner(ctx, agentID, ownerID, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		rec store.MemoryRecord
		sim float64
	}
	var results []scored
	for _, rec := range all {
		if len(rec.Embedding) == 0 {
			continue
		}
		sim := memory.CosineSimilarity(query, rec.Embedding)
		if sim >= minSimilarity {
			results = append(results, scored{rec: rec, sim: sim})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].sim > results[j].sim
	})
	if len(results) > topK {
		results = results[:topK]
	}

	out := make([]store.MemoryRecord, len(results))
	for i, r := range results {
		out[i] = r.rec
	}
	return out, nil
}

func (s *Store) UpdateKeyPoint(ctx context.Context, id uuid.UUID, keyPoint string) (*store.MemoryRecord, error) {
	if strings.TrimSpace(keyPoint) == "" {
		return nil, store.ErrEmptyKeyPoint
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		"UPDATE memories SET key_point = ?, updated_at = ? WHERE id = ?",
		keyPoint, time.Now().UTC().Unix(), id.String())
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("update key point: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}

	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id uuid.UUID) (*store.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, owner_id, key_point, context, embedding, created_at, updated_at
		 FROM memories WHERE id = ?`, id.String())
	rec, err := scanMemoryRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
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

func (s *Store) UpdateCount(ctx context.Context, agentID uuid.UUID, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT update_count FROM memory_counters WHERE agent_id = ? AND owner_id = ?",
		agentID.String(), ownerID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read update counter: %w", err)
	}
	return count, nil
}

func (s *Store) ResetUpdateCount(ctx context.Context, agentID uuid.UUID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE memory_counters SET update_count = 0, updated_at = ? WHERE agent_id = ? AND owner_id = ?",
		time.Now().UTC().Unix(), agentID.String(), ownerID)
	if err != nil {
		return fmt.Errorf("reset update counter: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- Row scanning ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMemoryRow(row rowScanner) (*store.MemoryRecord, error) {
	var rec store.MemoryRecord
	var id, agentID, ctxJSON string
	var embJSON sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&id, &agentID, &rec.OwnerID, &rec.KeyPoint,
		&ctxJSON, &embJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.ID, _ = uuid.Parse(id)
	rec.AgentID, _ = uuid.Parse(agentID)
	json.Unmarshal([]byte(ctxJSON), &rec.Context)
	if embJSON.Valid && embJSON.String != "" {
		json.Unmarshal([]byte(embJSON.String), &rec.Embedding)
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
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
