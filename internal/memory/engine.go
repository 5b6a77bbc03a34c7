package memory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mnemo-ai/mnemo/internal/scheduler"
	"github.com/mnemo-ai/mnemo/internal/store"
)

var tracer = otel.Tracer("mnemo/memory")

// Engine ties the pipeline together behind one facade: write path
// (extract → embed → persist), read path (embed → nearest neighbors),
// opportunistic compaction and the detached profile-summary refresh.
type Engine struct {
	store      store.MemoryStore
	writer     *Writer
	retriever  *Retriever
	compactor  *Compactor
	summarizer *ProfileSummarizer
	tasks      *scheduler.Runner
}

func NewEngine(memories store.MemoryStore, agents store.AgentStore, audit store.RequestLogStore, provider Provider, tasks *scheduler.Runner) *Engine {
	extractor := NewExtractor(provider, audit)
	return &Engine{
		store:      memories,
		writer:     NewWriter(memories, provider, extractor),
		retriever:  NewRetriever(memories, provider),
		compactor:  NewCompactor(memories, provider),
		summarizer: NewProfileSummarizer(memories, agents, provider),
		tasks:      tasks,
	}
}

// Remember extracts and persists insights from the conversation, kicks
// off a detached summary refresh when anything was written, and runs a
// compaction pass if the owner's counter crossed the threshold. Returns
// the number of memories created.
func (e *Engine) Remember(ctx context.Context, agentID uuid.UUID, ownerID, sessionID, sessionName string, turns []Turn) int {
	ctx, span := tracer.Start(ctx, "memory.remember", trace.WithAttributes(
		attribute.String("owner_id", ownerID),
		attribute.Int("turns", len(turns)),
	))
	defer span.End()

	created := e.writer.CreateMemory(ctx, agentID, ownerID, sessionID, sessionName, turns)
	span.SetAttributes(attribute.Int("memories_created", created))
	if created == 0 {
		return 0
	}

	e.refreshProfileAsync(agentID, ownerID)

	if e.compactor.ShouldSummarize(ctx, agentID, ownerID) {
		if err := e.compactor.Summarize(ctx, agentID, ownerID); err != nil {
			slog.Warn("memory compaction failed", "owner", ownerID, "error", err)
		} else {
			e.refreshProfileAsync(agentID, ownerID)
		}
	}

	return created
}

// Recall returns formatted memory lines relevant to the query, most
// similar first. Failures degrade to an empty slice.
func (e *Engine) Recall(ctx context.Context, agentID uuid.UUID, ownerID, query string) []string {
	ctx, span := tracer.Start(ctx, "memory.recall", trace.WithAttributes(
		attribute.String("owner_id", ownerID),
	))
	defer span.End()

	lines := e.retriever.Context(ctx, agentID, ownerID, query)
	span.SetAttributes(attribute.Int("memories_recalled", len(lines)))
	return lines
}

// Compact forces a compaction pass regardless of the counter.
func (e *Engine) Compact(ctx context.Context, agentID uuid.UUID, ownerID string) error {
	ctx, span := tracer.Start(ctx, "memory.compact", trace.WithAttributes(
		attribute.String("owner_id", ownerID),
	))
	defer span.End()

	if err := e.compactor.Summarize(ctx, agentID, ownerID); err != nil {
		return err
	}
	e.refreshProfileAsync(agentID, ownerID)
	return nil
}

// List returns the owner's memories newest first.
func (e *Engine) List(ctx context.Context, agentID uuid.UUID, ownerID string, limit int) ([]store.MemoryRecord, error) {
	return e.store.ListByOwner(ctx, agentID, ownerID, limit)
}

// EditMemory rewrites one record's key point (direct user edit) and
// refreshes the profile summary.
func (e *Engine) EditMemory(ctx context.Context, agentID uuid.UUID, ownerID string, id uuid.UUID, keyPoint string) (*store.MemoryRecord, error) {
	rec, err := e.store.UpdateKeyPoint(ctx, id, keyPoint)
	if err != nil {
		return nil, err
	}
	e.refreshProfileAsync(agentID, ownerID)
	return rec, nil
}

// ForgetMemory deletes one record (direct user deletion) and refreshes
// the profile summary.
func (e *Engine) ForgetMemory(ctx context.Context, agentID uuid.UUID, ownerID string, id uuid.UUID) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.refreshProfileAsync(agentID, ownerID)
	return nil
}

// RefreshProfile regenerates the client-facing summary synchronously.
func (e *Engine) RefreshProfile(ctx context.Context, agentID uuid.UUID, ownerID string) error {
	return e.summarizer.Refresh(ctx, agentID, ownerID)
}

// refreshProfileAsync submits the summary regeneration as a detached
// task. The trigger never waits on it and never sees its errors.
func (e *Engine) refreshProfileAsync(agentID uuid.UUID, ownerID string) {
	if e.tasks == nil {
		return
	}
	err := e.tasks.Submit("profile_summary", func(ctx context.Context) error {
		return e.summarizer.Refresh(ctx, agentID, ownerID)
	})
	if err != nil {
		slog.Warn("profile summary refresh not scheduled", "owner", ownerID, "error", err)
	}
}
