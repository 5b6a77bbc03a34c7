package memory

import "context"

// CompletionRequest is one chat completion call to the model provider.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Provider is the remote model capability the engine depends on. Failures
// are always treated as recoverable: the affected unit of work (one
// insight, one query, one compaction group) is dropped and the pipeline
// continues.
type Provider interface {
	// Complete returns the model's free-text response.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Embed returns one fixed-dimension vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
