package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// shortDateLayout renders "Jan 15, 2024".
const shortDateLayout = "Jan 2, 2006"

// Retriever fetches the stored memories most similar to a query and
// formats them for prompt injection. It never errors past its boundary:
// any failure degrades to an empty result.
type Retriever struct {
	store    store.MemoryStore
	provider Provider
}

func NewRetriever(st store.MemoryStore, provider Provider) *Retriever {
	return &Retriever{store: st, provider: provider}
}

// Context returns up to RetrieveTopK date-prefixed memory lines relevant
// to the query, most similar first.
func (r *Retriever) Context(ctx context.Context, agentID uuid.UUID, ownerID, query string) []string {
	vecs, err := r.provider.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		slog.Warn("query embedding failed", "owner", ownerID, "error", err)
		return nil
	}

	records, err := r.store.NearestNeighbors(ctx, vecs[0], agentID, ownerID,
		RetrieveTopK, RetrieveMinSimilarity)
	if err != nil {
		slog.Warn("memory search failed", "owner", ownerID, "error", err)
		return nil
	}

	// Output order follows similarity rank, not chronology.
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, FormatMemory(rec))
	}
	return lines
}

// FormatMemory renders one record as "{shortDate} - {keyPoint}".
func FormatMemory(rec store.MemoryRecord) string {
	return fmt.Sprintf("%s - %s", rec.CreatedAt.Format(shortDateLayout), rec.KeyPoint)
}
