package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// ProfileSummarizer regenerates the short human-readable paragraph shown
// on the agent's profile. The paragraph is display-only and never fed
// back into prompts. Concurrent refreshes for the same owner collapse
// into one provider call.
type ProfileSummarizer struct {
	memories store.MemoryStore
	agents   store.AgentStore
	provider Provider
	sf       singleflight.Group
}

func NewProfileSummarizer(memories store.MemoryStore, agents store.AgentStore, provider Provider) *ProfileSummarizer {
	return &ProfileSummarizer{memories: memories, agents: agents, provider: provider}
}

// Refresh rebuilds the summary from all of the owner's memories. When no
// memories remain the stored summary is cleared. Intended to run as a
// detached task after any memory mutation; the error return exists for
// the task runner's log line only.
func (p *ProfileSummarizer) Refresh(ctx context.Context, agentID uuid.UUID, ownerID string) error {
	key := agentID.String() + "/" + ownerID
	_, err, _ := p.sf.Do(key, func() (interface{}, error) {
		return nil, p.refresh(ctx, agentID, ownerID)
	})
	return err
}

func (p *ProfileSummarizer) refresh(ctx context.Context, agentID uuid.UUID, ownerID string) error {
	memories, err := p.memories.ListByOwner(ctx, agentID, ownerID, 0)
	if err != nil {
		return fmt.Errorf("list memories for summary: %w", err)
	}

	if len(memories) == 0 {
		if err := p.agents.SetMemorySummary(ctx, agentID, nil); err != nil {
			return fmt.Errorf("clear memory summary: %w", err)
		}
		return nil
	}

	paragraph, err := p.provider.Complete(ctx, CompletionRequest{
		System:      profileSystemPrompt,
		Prompt:      profilePrompt(numberedKeyPoints(memories)),
		Temperature: 0.4,
		MaxTokens:   400,
	})
	if err != nil {
		return fmt.Errorf("summary completion: %w", err)
	}
	paragraph = strings.TrimSpace(paragraph)
	if paragraph == "" {
		return fmt.Errorf("summary completion: empty response")
	}
	if len(paragraph) > ProfileSummaryMaxLen {
		paragraph = paragraph[:ProfileSummaryMaxLen]
	}

	if err := p.agents.SetMemorySummary(ctx, agentID, &paragraph); err != nil {
		return fmt.Errorf("persist memory summary: %w", err)
	}

	slog.Debug("agent memory summary refreshed", "agent", agentID, "owner", ownerID,
		"memories", len(memories))
	return nil
}
