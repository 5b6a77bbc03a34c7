package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	agentID := store.GenNewID()

	for _, kp := range []string{"first", "second", "third"} {
		rec := &store.MemoryRecord{
			AgentID:   agentID,
			OwnerID:   "owner-1",
			KeyPoint:  kp,
			Context:   store.MemoryContext{SessionID: "s1", MessageCount: 4},
			Embedding: []float32{1, 0, 0},
		}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s): %v", kp, err)
		}
		if rec.ID == uuid.Nil {
			t.Fatal("Insert did not assign an id")
		}
	}

	records, err := s.ListByOwner(ctx, agentID, "owner-1", 0)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	// Newest first.
	if records[0].KeyPoint != "third" || records[2].KeyPoint != "first" {
		t.Errorf("order = [%s %s %s], want newest first",
			records[0].KeyPoint, records[1].KeyPoint, records[2].KeyPoint)
	}
	if records[0].Context.SessionID != "s1" || records[0].Context.MessageCount != 4 {
		t.Errorf("context round-trip = %+v", records[0].Context)
	}

	limited, err := s.ListByOwner(ctx, agentID, "owner-1", 2)
	if err != nil {
		t.Fatalf("ListByOwner limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited records = %d, want 2", len(limited))
	}
}

func TestInsert_Invariants(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Insert(ctx, &store.MemoryRecord{
		AgentID: store.GenNewID(), OwnerID: "o",
		KeyPoint: "  ", Embedding: []float32{1},
	})
	if !errors.Is(err, store.ErrEmptyKeyPoint) {
		t.Errorf("blank key point error = %v, want ErrEmptyKeyPoint", err)
	}

	err = s.Insert(ctx, &store.MemoryRecord{
		AgentID: store.GenNewID(), OwnerID: "o", KeyPoint: "fact",
	})
	if !errors.Is(err, store.ErrMissingEmbedding) {
		t.Errorf("missing embedding error = %v, want ErrMissingEmbedding", err)
	}
}

func TestNearestNeighbors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	agentID := store.GenNewID()

	seed := func(kp string, emb []float32) {
		err := s.Insert(ctx, &store.MemoryRecord{
			AgentID: agentID, OwnerID: "owner-1", KeyPoint: kp, Embedding: emb,
		})
		if err != nil {
			t.Fatalf("Insert(%s): %v", kp, err)
		}
	}
	seed("exact match", []float32{1, 0, 0})
	seed("close match", []float32{0.9, 0.1, 0})
	seed("unrelated", []float32{0, 0, 1})

	got, err := s.NearestNeighbors(ctx, []float32{1, 0, 0}, agentID, "owner-1", 5, 0.5)
	if err != nil {
		t.Fatalf("NearestNeighbors: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("neighbors = %d, want 2", len(got))
	}
	if got[0].KeyPoint != "exact match" || got[1].KeyPoint != "close match" {
		t.Errorf("order = [%s %s], want most similar first", got[0].KeyPoint, got[1].KeyPoint)
	}

	// topK truncates after the threshold filter.
	one, err := s.NearestNeighbors(ctx, []float32{1, 0, 0}, agentID, "owner-1", 1, 0.5)
	if err != nil {
		t.Fatalf("NearestNeighbors topK=1: %v", err)
	}
	if len(one) != 1 || one[0].KeyPoint != "exact match" {
		t.Errorf("topK=1 = %v", one)
	}

	// Other owners are invisible.
	none, err := s.NearestNeighbors(ctx, []float32{1, 0, 0}, agentID, "owner-2", 5, 0.5)
	if err != nil {
		t.Fatalf("NearestNeighbors other owner: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("cross-owner neighbors = %d, want 0", len(none))
	}
}

func TestUpdateKeyPointAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	agentID := store.GenNewID()

	rec := &store.MemoryRecord{
		AgentID: agentID, OwnerID: "owner-1",
		KeyPoint: "original", Embedding: []float32{1, 0},
	}
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	updated, err := s.UpdateKeyPoint(ctx, rec.ID, "rewritten")
	if err != nil {
		t.Fatalf("UpdateKeyPoint: %v", err)
	}
	if updated.KeyPoint != "rewritten" {
		t.Errorf("KeyPoint = %q, want rewritten", updated.KeyPoint)
	}
	if len(updated.Embedding) == 0 {
		t.Error("embedding lost on key point update")
	}

	if _, err := s.UpdateKeyPoint(ctx, store.GenNewID(), "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update of unknown id = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	records, _ := s.ListByOwner(ctx, agentID, "owner-1", 0)
	if len(records) != 0 {
		t.Errorf("records after delete = %d, want 0", len(records))
	}
}

func TestDeleteMany(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	agentID := store.GenNewID()

	var ids []uuid.UUID
	for _, kp := range []string{"a", "b", "c"} {
		rec := &store.MemoryRecord{
			AgentID: agentID, OwnerID: "owner-1", KeyPoint: kp, Embedding: []float32{1},
		}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	if err := s.DeleteMany(ctx, ids[:2]); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	records, _ := s.ListByOwner(ctx, agentID, "owner-1", 0)
	if len(records) != 1 || records[0].KeyPoint != "c" {
		t.Errorf("surviving records = %v", records)
	}

	if err := s.DeleteMany(ctx, nil); err != nil {
		t.Errorf("DeleteMany(nil) = %v, want nil", err)
	}
}

func TestUpdateCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	agentID := store.GenNewID()

	count, err := s.UpdateCount(ctx, agentID, "owner-1")
	if err != nil {
		t.Fatalf("UpdateCount: %v", err)
	}
	if count != 0 {
		t.Errorf("initial count = %d, want 0", count)
	}

	for i := 0; i < 3; i++ {
		err := s.Insert(ctx, &store.MemoryRecord{
			AgentID: agentID, OwnerID: "owner-1", KeyPoint: "fact", Embedding: []float32{1},
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	count, _ = s.UpdateCount(ctx, agentID, "owner-1")
	if count != 3 {
		t.Errorf("count after 3 inserts = %d, want 3", count)
	}

	// Scoped per owner.
	other, _ := s.UpdateCount(ctx, agentID, "owner-2")
	if other != 0 {
		t.Errorf("other owner count = %d, want 0", other)
	}

	if err := s.ResetUpdateCount(ctx, agentID, "owner-1"); err != nil {
		t.Fatalf("ResetUpdateCount: %v", err)
	}
	count, _ = s.UpdateCount(ctx, agentID, "owner-1")
	if count != 0 {
		t.Errorf("count after reset = %d, want 0", count)
	}
}

func TestAgents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	agent := &store.AgentProfile{
		AgentKey:    "assistant",
		DisplayName: "Assistant",
		Provider:    "openai",
		Model:       "gpt-4o-mini",
	}
	if err := s.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if agent.ID == uuid.Nil {
		t.Fatal("CreateAgent did not assign an id")
	}

	byKey, err := s.GetAgentByKey(ctx, "assistant")
	if err != nil {
		t.Fatalf("GetAgentByKey: %v", err)
	}
	if byKey.ID != agent.ID {
		t.Errorf("lookup id = %s, want %s", byKey.ID, agent.ID)
	}
	if byKey.MemorySummary != nil {
		t.Errorf("fresh agent summary = %v, want nil", byKey.MemorySummary)
	}

	summary := "Knows the user well."
	if err := s.SetMemorySummary(ctx, agent.ID, &summary); err != nil {
		t.Fatalf("SetMemorySummary: %v", err)
	}
	got, _ := s.GetAgent(ctx, agent.ID)
	if got.MemorySummary == nil || *got.MemorySummary != summary {
		t.Errorf("summary = %v, want %q", got.MemorySummary, summary)
	}

	if err := s.SetMemorySummary(ctx, agent.ID, nil); err != nil {
		t.Fatalf("SetMemorySummary(nil): %v", err)
	}
	got, _ = s.GetAgent(ctx, agent.ID)
	if got.MemorySummary != nil {
		t.Errorf("summary after clear = %v, want nil", got.MemorySummary)
	}

	if _, err := s.GetAgentByKey(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing agent error = %v, want ErrNotFound", err)
	}
}

func TestRequestLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry := &store.RequestLogEntry{
		AgentID:  store.GenNewID(),
		OwnerID:  "owner-1",
		Category: "memory_extraction",
		Request:  json.RawMessage(`{"prompt":"p"}`),
		Response: json.RawMessage(`{"text":"r"}`),
	}
	if err := s.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}
}
