package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

func TestRetrieverContext(t *testing.T) {
	agentID := uuid.New()
	st := newFakeMemoryStore()
	st.seed(store.MemoryRecord{
		AgentID: agentID, OwnerID: "owner-1",
		KeyPoint:  "User enjoys hiking",
		Embedding: []float32{1, 0, 0},
		CreatedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})
	st.seed(store.MemoryRecord{
		AgentID: agentID, OwnerID: "owner-1",
		KeyPoint:  "User dislikes crowds",
		Embedding: []float32{0.9, 0.1, 0},
		CreatedAt: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	st.seed(store.MemoryRecord{
		AgentID: agentID, OwnerID: "owner-1",
		KeyPoint:  "Unrelated fact",
		Embedding: []float32{0, 0, 1},
		CreatedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	})

	provider := &fakeProvider{embedFn: constEmbed([]float32{1, 0, 0})}
	retriever := NewRetriever(st, provider)

	lines := retriever.Context(context.Background(), agentID, "owner-1", "outdoor plans")
	if len(lines) != 2 {
		t.Fatalf("Context returned %d lines, want 2: %v", len(lines), lines)
	}
	// Most similar first, dates rendered short-form.
	if lines[0] != "Jan 15, 2024 - User enjoys hiking" {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if lines[1] != "Mar 2, 2024 - User dislikes crowds" {
		t.Errorf("lines[1] = %q", lines[1])
	}
}

func TestRetrieverContext_EmbedFailure(t *testing.T) {
	st := newFakeMemoryStore()
	provider := &fakeProvider{
		embedFn: func([]string) ([][]float32, error) {
			return nil, errors.New("provider down")
		},
	}
	retriever := NewRetriever(st, provider)

	lines := retriever.Context(context.Background(), uuid.New(), "owner-1", "anything")
	if len(lines) != 0 {
		t.Errorf("Context after embed failure = %v, want empty", lines)
	}
}

func TestRetrieverContext_ReadOnly(t *testing.T) {
	agentID := uuid.New()
	st := newFakeMemoryStore()
	st.seed(store.MemoryRecord{
		AgentID: agentID, OwnerID: "owner-1",
		KeyPoint:  "Stable fact",
		Embedding: []float32{1, 0},
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})

	provider := &fakeProvider{embedFn: constEmbed([]float32{1, 0})}
	retriever := NewRetriever(st, provider)

	first := retriever.Context(context.Background(), agentID, "owner-1", "fact")
	second := retriever.Context(context.Background(), agentID, "owner-1", "fact")

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("repeated retrieval differs: %v vs %v", first, second)
	}
	if got := len(st.keyPoints()); got != 1 {
		t.Errorf("store size changed to %d after retrieval", got)
	}
}

func TestFormatMemory(t *testing.T) {
	rec := store.MemoryRecord{
		KeyPoint:  "Test memory",
		CreatedAt: time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC),
	}
	got := FormatMemory(rec)
	if got != "Jan 15, 2024 - Test memory" {
		t.Errorf("FormatMemory = %q, want %q", got, "Jan 15, 2024 - Test memory")
	}
}
