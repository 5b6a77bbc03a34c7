package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// Compactor merges near-duplicate memories into fewer, denser records and
// resets the owner's update counter. It runs opportunistically when a
// caller observes ShouldSummarize; there is no timer.
type Compactor struct {
	store    store.MemoryStore
	provider Provider
}

func NewCompactor(st store.MemoryStore, provider Provider) *Compactor {
	return &Compactor{store: st, provider: provider}
}

// ShouldSummarize reports whether the owner's write counter has reached
// the compaction threshold. Pure read; the caller decides when to act.
func (c *Compactor) ShouldSummarize(ctx context.Context, agentID uuid.UUID, ownerID string) bool {
	count, err := c.store.UpdateCount(ctx, agentID, ownerID)
	if err != nil {
		slog.Warn("update counter read failed", "owner", ownerID, "error", err)
		return false
	}
	return count >= CompactAfterUpdates
}

// Summarize runs one compaction pass: group the owner's recent memories
// by embedding similarity, replace each multi-member group with one
// consolidated record, and reset the update counter. Per-group failures
// are logged and skipped; the pass continues. With no memories at all the
// pass is a no-op and the counter is left untouched.
func (c *Compactor) Summarize(ctx context.Context, agentID uuid.UUID, ownerID string) error {
	memories, err := c.store.ListByOwner(ctx, agentID, ownerID, CompactBatchLimit)
	if err != nil {
		return fmt.Errorf("list memories for compaction: %w", err)
	}
	if len(memories) == 0 {
		return nil
	}

	groups := groupBySimilarity(memories)

	merged := 0
	for _, group := range groups {
		// Singletons are left untouched: compaction consolidates, it does
		// not re-summarize individual records.
		if len(group) < 2 {
			continue
		}
		if err := c.mergeGroup(ctx, agentID, ownerID, group); err != nil {
			slog.Warn("memory group merge failed", "owner", ownerID,
				"group_size", len(group), "error", err)
			continue
		}
		merged++
	}

	// Counter resets whether or not any group merged; the pass itself is
	// what the threshold gates.
	if err := c.store.ResetUpdateCount(ctx, agentID, ownerID); err != nil {
		slog.Warn("update counter reset failed", "owner", ownerID, "error", err)
	}

	slog.Info("memory compaction finished", "owner", ownerID,
		"memories", len(memories), "groups", len(groups), "merged", merged)
	return nil
}

// groupBySimilarity partitions records with a single greedy pass in fetch
// order: each unprocessed record seeds a group and claims every later
// unprocessed record whose embedding is within GroupMinSimilarity of the
// seed. Membership is decided against the seed only, never against other
// members: single-linkage-to-seed, not transitive.
// Records without an embedding always stay singletons.
func groupBySimilarity(memories []store.MemoryRecord) [][]store.MemoryRecord {
	processed := make(map[uuid.UUID]bool, len(memories))
	var groups [][]store.MemoryRecord

	for i, seed := range memories {
		if processed[seed.ID] {
			continue
		}
		processed[seed.ID] = true
		group := []store.MemoryRecord{seed}

		if len(seed.Embedding) > 0 {
			for _, candidate := range memories[i+1:] {
				if processed[candidate.ID] || len(candidate.Embedding) == 0 {
					continue
				}
				if CosineSimilarity(seed.Embedding, candidate.Embedding) >= GroupMinSimilarity {
					processed[candidate.ID] = true
					group = append(group, candidate)
				}
			}
		}

		groups = append(groups, group)
	}

	return groups
}

// mergeGroup replaces a multi-member group with one consolidated record.
// The originals are deleted only after the replacement exists.
func (c *Compactor) mergeGroup(ctx context.Context, agentID uuid.UUID, ownerID string, group []store.MemoryRecord) error {
	consolidated, err := c.provider.Complete(ctx, CompletionRequest{
		System:      consolidateSystemPrompt,
		Prompt:      consolidatePrompt(numberedKeyPoints(group)),
		Temperature: 0.2,
		MaxTokens:   256,
	})
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}
	consolidated = strings.TrimSpace(consolidated)
	if consolidated == "" {
		return fmt.Errorf("consolidate: empty response")
	}
	if len(consolidated) > MaxKeyPointLen {
		consolidated = consolidated[:MaxKeyPointLen]
	}

	vecs, err := c.provider.Embed(ctx, []string{consolidated})
	if err != nil {
		return fmt.Errorf("embed summary: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return fmt.Errorf("embed summary: empty vector")
	}

	summary := &store.MemoryRecord{
		AgentID:   agentID,
		OwnerID:   ownerID,
		KeyPoint:  consolidated,
		Context:   group[len(group)-1].Context,
		Embedding: vecs[0],
	}
	if err := c.store.Insert(ctx, summary); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	ids := make([]uuid.UUID, len(group))
	for i, rec := range group {
		ids[i] = rec.ID
	}
	if err := c.store.DeleteMany(ctx, ids); err != nil {
		return fmt.Errorf("delete originals: %w", err)
	}

	return nil
}

func numberedKeyPoints(records []store.MemoryRecord) string {
	var b strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec.KeyPoint)
	}
	return b.String()
}
