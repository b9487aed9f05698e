// Package retrieval implements the similarity-search engine behind the
// assistant's retrieval-augmented context: two logical vector indices
// (knowledge base and conversation history) behind one uniform contract,
// with pluggable embedding and index backends.
package retrieval

import (
	"context"
	"time"
)

// Target names a logical index.
type Target string

// The two logical indices the engine manages.
const (
	TargetKnowledgeBase       Target = "knowledge-base"
	TargetConversationHistory Target = "conversation-history"
)

// Query defaults used by the assistant.
const (
	KnowledgeBaseTopK     = 5
	KnowledgeBaseMinScore = 0.6
	HistoryTopK           = 3
	HistoryMinScore       = 0.7
)

// Record is an embedded snippet owned by exactly one logical index.
// Records are append-only and never mutated after insertion.
type Record struct {
	ID        string            `json:"id"`
	Vector    []float32         `json:"-"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Result pairs a record with a relevance score in [0,1]. Transient, produced
// per query.
type Result struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}

// Embedder produces fixed-dimension vectors for text. All vectors produced
// for one index share the same dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is a single vector index. Implementations must keep concurrent Add
// and Search consistent: readers may see a stale snapshot but never a
// corrupted one. Search results come back sorted by descending score,
// filtered to score >= minScore and truncated to at most k.
type Index interface {
	Add(ctx context.Context, rec Record) error
	Search(ctx context.Context, vector []float32, k int, minScore float64) ([]Result, error)
}
