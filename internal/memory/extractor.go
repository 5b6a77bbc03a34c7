package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"

	"github.com/mnemo-ai/mnemo/internal/store"
)

// numberedLineRe matches extractor output lines the model numbered itself
// ("1. foo", "2) bar"). Numbered lines are heading/list artifacts and are
// dropped rather than stripped.
var numberedLineRe = regexp.MustCompile(`^\d+[.)]\s`)

// Extractor turns a window of recent conversation turns into a bounded
// list of short key insights. It never returns an error: every failure
// mode degrades to "no memory created this turn".
type Extractor struct {
	provider Provider
	audit    store.RequestLogStore // optional

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

func NewExtractor(provider Provider, audit store.RequestLogStore) *Extractor {
	return &Extractor{provider: provider, audit: audit}
}

// Extract returns at most MaxInsights short factual insights from the
// trailing ExtractWindowTurns of the conversation. Empty input yields
// empty output with no remote call.
func (e *Extractor) Extract(ctx context.Context, agentID uuid.UUID, ownerID string, turns []Turn) []string {
	if len(turns) == 0 {
		return nil
	}

	window := turns
	if len(window) > ExtractWindowTurns {
		window = window[len(window)-ExtractWindowTurns:]
	}
	window = e.fitTokenBudget(window)

	transcript := renderTranscript(window)
	prompt := extractPrompt(transcript)

	raw, err := e.provider.Complete(ctx, CompletionRequest{
		System:      extractSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil {
		slog.Warn("insight extraction failed", "owner", ownerID, "error", err)
		return nil
	}

	e.auditLog(ctx, agentID, ownerID, prompt, raw)

	return parseInsights(raw)
}

// fitTokenBudget drops the oldest turns until the window fits
// ExtractTokenBudget. At least the final turn is always kept. A
// transcript shorter than the budget in bytes can never exceed it in
// tokens, so short windows skip tokenization entirely.
func (e *Extractor) fitTokenBudget(window []Turn) []Turn {
	for len(window) > 1 {
		transcript := renderTranscript(window)
		if len(transcript) <= ExtractTokenBudget {
			break
		}
		if e.countTokens(transcript) <= ExtractTokenBudget {
			break
		}
		window = window[1:]
	}
	return window
}

func (e *Extractor) countTokens(text string) int {
	e.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("tiktoken unavailable, estimating token counts", "error", err)
			return
		}
		e.enc = enc
	})
	if e.enc == nil {
		// Rough heuristic: ~4 bytes per token.
		return len(text) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}

// auditLog records the prompt/response pair best-effort; never on the
// critical path.
func (e *Extractor) auditLog(ctx context.Context, agentID uuid.UUID, ownerID, prompt, response string) {
	if e.audit == nil {
		return
	}
	req, _ := json.Marshal(map[string]string{"prompt": prompt})
	resp, _ := json.Marshal(map[string]string{"text": response})
	err := e.audit.Log(ctx, &store.RequestLogEntry{
		AgentID:  agentID,
		OwnerID:  ownerID,
		Category: "memory_extraction",
		Request:  req,
		Response: resp,
	})
	if err != nil {
		slog.Warn("extraction audit log failed", "owner", ownerID, "error", err)
	}
}

func renderTranscript(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// parseInsights cleans the raw completion into key points:
// split on newlines, trim, drop empties, drop self-numbered lines,
// strip a leading bullet marker, drop over-length lines, cap at
// MaxInsights.
func parseInsights(raw string) []string {
	var insights []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if numberedLineRe.MatchString(line) {
			continue
		}
		for _, marker := range []string{"-", "•", "*"} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line == "" || len(line) > MaxKeyPointLen {
			continue
		}
		insights = append(insights, line)
		if len(insights) == MaxInsights {
			break
		}
	}
	return insights
}
