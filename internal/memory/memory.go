// Package memory implements the agent long-term memory engine: extraction
// of durable key insights from conversation turns, embedding-backed
// retrieval of relevant memories for future turns, periodic compaction of
// similar memories into denser summaries, and regeneration of the
// client-facing summary shown on the agent's profile.
package memory

// Platform constants. Retrieval and grouping both use cosine similarity
// but with different thresholds: retrieval casts a wide net, grouping only
// merges near-duplicates.
const (
	// ExtractWindowTurns is how many trailing conversation turns the
	// extractor looks at.
	ExtractWindowTurns = 10

	// ExtractTokenBudget caps the extraction prompt size; older turns are
	// dropped first when the window exceeds it.
	ExtractTokenBudget = 3000

	// MaxInsights is the most key insights one extraction may yield.
	MaxInsights = 5

	// MaxKeyPointLen bounds a single key point. Longer extractor output
	// lines are dropped, consolidated key points are truncated.
	MaxKeyPointLen = 300

	// RetrieveTopK is the number of memories injected into a prompt.
	RetrieveTopK = 5

	// RetrieveMinSimilarity is the retrieval similarity floor.
	RetrieveMinSimilarity = 0.5

	// GroupMinSimilarity is the compaction grouping floor. Far stricter
	// than retrieval: compaction merges near-duplicates only.
	GroupMinSimilarity = 0.95

	// CompactBatchLimit bounds how many memories one compaction pass reads.
	CompactBatchLimit = 100

	// CompactAfterUpdates is the update-counter threshold at which callers
	// should trigger a compaction pass.
	CompactAfterUpdates = 10

	// ProfileSummaryMaxLen bounds the client-facing summary paragraph.
	ProfileSummaryMaxLen = 1000
)

// Turn is a single conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
