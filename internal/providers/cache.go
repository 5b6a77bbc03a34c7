package providers

import (
	"context"
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mnemo-ai/mnemo/internal/memory"
)

// CachingProvider wraps a provider with an in-process LRU over embeddings,
// keyed by content hash. Identical texts (repeated queries, re-extracted
// insights) skip the remote call. Completions are never cached.
type CachingProvider struct {
	inner memory.Provider
	cache *lru.Cache[string, []float32]
}

// NewCachingProvider wraps inner with an embedding cache of the given
// size. size <= 0 falls back to 2048 entries.
func NewCachingProvider(inner memory.Provider, size int) (*CachingProvider, error) {
	if size <= 0 {
		size = 2048
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachingProvider{inner: inner, cache: cache}, nil
}

func (p *CachingProvider) Complete(ctx context.Context, req memory.CompletionRequest) (string, error) {
	return p.inner.Complete(ctx, req)
}

func (p *CachingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// Collect cache misses, preserving input positions.
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vec, ok := p.cache.Get(contentHash(text)); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := p.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		if j >= len(missIdx) {
			break
		}
		out[missIdx[j]] = vec
		if len(vec) > 0 {
			p.cache.Add(contentHash(missTexts[j]), vec)
		}
	}
	return out, nil
}

// contentHash returns the truncated SHA256 of text content.
func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h[:16])
}
