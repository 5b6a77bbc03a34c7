package providers

import (
	"context"
	"sync"
	"testing"

	"github.com/mnemo-ai/mnemo/internal/memory"
)

type countingProvider struct {
	mu         sync.Mutex
	embedCalls int
	embedTexts []string
}

func (p *countingProvider) Complete(_ context.Context, _ memory.CompletionRequest) (string, error) {
	return "ok", nil
}

func (p *countingProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedCalls++
	p.embedTexts = append(p.embedTexts, texts...)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func TestCachingProvider_Embed(t *testing.T) {
	inner := &countingProvider{}
	p, err := NewCachingProvider(inner, 16)
	if err != nil {
		t.Fatalf("NewCachingProvider: %v", err)
	}
	ctx := context.Background()

	first, err := p.Embed(ctx, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("vectors = %d, want 2", len(first))
	}
	if inner.embedCalls != 1 {
		t.Fatalf("embedCalls = %d, want 1", inner.embedCalls)
	}

	// Full hit: no remote call.
	second, err := p.Embed(ctx, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed cached: %v", err)
	}
	if inner.embedCalls != 1 {
		t.Errorf("embedCalls after full hit = %d, want 1", inner.embedCalls)
	}
	if second[0][0] != first[0][0] || second[1][0] != first[1][0] {
		t.Error("cached vectors differ from originals")
	}

	// Partial hit: only the new text goes remote, positions preserved.
	third, err := p.Embed(ctx, []string{"gamma", "alpha"})
	if err != nil {
		t.Fatalf("Embed partial: %v", err)
	}
	if inner.embedCalls != 2 {
		t.Errorf("embedCalls after partial hit = %d, want 2", inner.embedCalls)
	}
	if got := inner.embedTexts[len(inner.embedTexts)-1]; got != "gamma" {
		t.Errorf("last remote text = %q, want gamma", got)
	}
	if third[0][0] != float32(len("gamma")) || third[1][0] != float32(len("alpha")) {
		t.Errorf("positions scrambled: %v", third)
	}
}

func TestCachingProvider_CompletePassThrough(t *testing.T) {
	inner := &countingProvider{}
	p, err := NewCachingProvider(inner, 16)
	if err != nil {
		t.Fatalf("NewCachingProvider: %v", err)
	}

	got, err := p.Complete(context.Background(), memory.CompletionRequest{Prompt: "hi"})
	if err != nil || got != "ok" {
		t.Errorf("Complete = %q, %v", got, err)
	}
}
