package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// fakeProvider scripts Complete/Embed behavior per test.
type fakeProvider struct {
	completeFn func(req CompletionRequest) (string, error)
	embedFn    func(texts []string) ([][]float32, error)

	mu            sync.Mutex
	completeCalls int
	embedCalls    int
}

func (p *fakeProvider) Complete(_ context.Context, req CompletionRequest) (string, error) {
	p.mu.Lock()
	p.completeCalls++
	p.mu.Unlock()
	if p.completeFn == nil {
		return "", errors.New("no completion scripted")
	}
	return p.completeFn(req)
}

func (p *fakeProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.embedCalls++
	p.mu.Unlock()
	if p.embedFn == nil {
		return nil, errors.New("no embedding scripted")
	}
	return p.embedFn(texts)
}

// constEmbed returns the same vector for every input text.
func constEmbed(vec []float32) func([]string) ([][]float32, error) {
	return func(texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = vec
		}
		return out, nil
	}
}

// fakeMemoryStore is an in-process MemoryStore with scriptable failures.
type fakeMemoryStore struct {
	mu      sync.Mutex
	records []store.MemoryRecord
	counts  map[string]int

	insertErrFor map[string]error // keyed by key point
	listErr      error
	countErr     error

	resetCalls int
	deleted    []uuid.UUID
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{counts: make(map[string]int)}
}

func counterKey(agentID uuid.UUID, ownerID string) string {
	return agentID.String() + "/" + ownerID
}

func (s *fakeMemoryStore) Insert(_ context.Context, rec *store.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErrFor[rec.KeyPoint]; err != nil {
		return err
	}
	if rec.KeyPoint == "" {
		return store.ErrEmptyKeyPoint
	}
	if len(rec.Embedding) == 0 {
		return store.ErrMissingEmbedding
	}
	if rec.ID == uuid.Nil {
		rec.ID = store.GenNewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, *rec)
	s.counts[counterKey(rec.AgentID, rec.OwnerID)]++
	return nil
}

func (s *fakeMemoryStore) ListByOwner(_ context.Context, agentID uuid.UUID, ownerID string, limit int) ([]store.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []store.MemoryRecord
	// Newest first: iterate in reverse insertion order.
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.AgentID == agentID && rec.OwnerID == ownerID {
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeMemoryStore) NearestNeighbors(_ context.Context, query []float32, agentID uuid.UUID, ownerID string, topK int, minSimilarity float64) ([]store.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type scored struct {
		rec store.MemoryRecord
		sim float64
	}
	var hits []scored
	for _, rec := range s.records {
		if rec.AgentID != agentID || rec.OwnerID != ownerID || len(rec.Embedding) == 0 {
			continue
		}
		sim := CosineSimilarity(query, rec.Embedding)
		if sim >= minSimilarity {
			hits = append(hits, scored{rec, sim})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].sim > hits[j].sim })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]store.MemoryRecord, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out, nil
}

func (s *fakeMemoryStore) UpdateKeyPoint(_ context.Context, id uuid.UUID, keyPoint string) (*store.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].KeyPoint = keyPoint
			s.records[i].UpdatedAt = time.Now().UTC()
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.DeleteMany(context.Background(), []uuid.UUID{id})
}

func (s *fakeMemoryStore) DeleteMany(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []store.MemoryRecord
	for _, rec := range s.records {
		if drop[rec.ID] {
			s.deleted = append(s.deleted, rec.ID)
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return nil
}

func (s *fakeMemoryStore) UpdateCount(_ context.Context, agentID uuid.UUID, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.counts[counterKey(agentID, ownerID)], nil
}

func (s *fakeMemoryStore) ResetUpdateCount(_ context.Context, agentID uuid.UUID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetCalls++
	s.counts[counterKey(agentID, ownerID)] = 0
	return nil
}

func (s *fakeMemoryStore) Close() error { return nil }

// seed inserts a record directly, bypassing counter bookkeeping.
func (s *fakeMemoryStore) seed(rec store.MemoryRecord) store.MemoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = store.GenNewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, rec)
	return rec
}

func (s *fakeMemoryStore) keyPoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.KeyPoint
	}
	return out
}

// fakeAgentStore records SetMemorySummary calls.
type fakeAgentStore struct {
	mu        sync.Mutex
	summaries map[uuid.UUID]*string
	setCalls  int
}

func newFakeAgentStore() *fakeAgentStore {
	return &fakeAgentStore{summaries: make(map[uuid.UUID]*string)}
}

func (s *fakeAgentStore) CreateAgent(_ context.Context, agent *store.AgentProfile) error {
	if agent.ID == uuid.Nil {
		agent.ID = store.GenNewID()
	}
	return nil
}

func (s *fakeAgentStore) GetAgent(_ context.Context, id uuid.UUID) (*store.AgentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &store.AgentProfile{ID: id, MemorySummary: s.summaries[id]}, nil
}

func (s *fakeAgentStore) GetAgentByKey(_ context.Context, _ string) (*store.AgentProfile, error) {
	return nil, store.ErrNotFound
}

func (s *fakeAgentStore) SetMemorySummary(_ context.Context, id uuid.UUID, summary *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	s.summaries[id] = summary
	return nil
}

// fakeAudit captures request log entries.
type fakeAudit struct {
	mu      sync.Mutex
	entries []store.RequestLogEntry
}

func (a *fakeAudit) Log(_ context.Context, entry *store.RequestLogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *entry)
	return nil
}
