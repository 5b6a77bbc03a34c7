package memory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// Writer persists extracted insights as memory records. Each insight is
// handled independently: one failed embedding or insert never aborts the
// rest of the batch.
type Writer struct {
	store     store.MemoryStore
	provider  Provider
	extractor *Extractor
}

func NewWriter(st store.MemoryStore, provider Provider, extractor *Extractor) *Writer {
	return &Writer{store: st, provider: provider, extractor: extractor}
}

// CreateMemory extracts insights from the conversation and persists one
// record per insight that embeds successfully. Returns the number of
// records created (0 when extraction yields nothing; the store is not
// touched in that case).
func (w *Writer) CreateMemory(ctx context.Context, agentID uuid.UUID, ownerID, sessionID, sessionName string, turns []Turn) int {
	insights := w.extractor.Extract(ctx, agentID, ownerID, turns)
	if len(insights) == 0 {
		return 0
	}

	// One context object shared by every record of this batch.
	memCtx := store.MemoryContext{
		SessionID:    sessionID,
		SessionName:  sessionName,
		MessageCount: len(turns),
	}

	created := 0
	for _, insight := range insights {
		embedding, err := w.embed(ctx, insight)
		if err != nil {
			slog.Warn("insight embedding failed", "owner", ownerID, "error", err)
			continue
		}

		rec := &store.MemoryRecord{
			AgentID:   agentID,
			OwnerID:   ownerID,
			KeyPoint:  insight,
			Context:   memCtx,
			Embedding: embedding,
		}
		if err := w.store.Insert(ctx, rec); err != nil {
			slog.Warn("memory insert failed", "owner", ownerID, "error", err)
			continue
		}
		created++
	}

	slog.Debug("memory batch written", "owner", ownerID,
		"insights", len(insights), "created", created)
	return created
}

func (w *Writer) embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := w.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, store.ErrMissingEmbedding
	}
	return vecs[0], nil
}
