package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elbchat/elbchat/core"
	"github.com/elbchat/elbchat/logging"
)

// Engine wraps the embedder and the logical indices behind the uniform
// index/query contract. Safe for concurrent use; the indices themselves
// carry the synchronization.
type Engine struct {
	embedder Embedder
	indices  map[Target]Index
	logger   logging.Logger
	onQuery  func(target Target)
}

// NewEngine constructs an engine over the given backends. Both logical
// targets must be supplied.
func NewEngine(embedder Embedder, knowledgeBase, history Index, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Engine{
		embedder: embedder,
		indices: map[Target]Index{
			TargetKnowledgeBase:       knowledgeBase,
			TargetConversationHistory: history,
		},
		logger: logger,
	}
}

// OnQuery registers a hook invoked once per completed query, keyed by the
// queried target. Call before serving traffic; typically wired to a metrics
// counter.
func (e *Engine) OnQuery(fn func(target Target)) { e.onQuery = fn }

// Index embeds text and appends a record to the named logical index.
func (e *Engine) Index(ctx context.Context, text string, metadata map[string]string, target Target) error {
	idx, ok := e.indices[target]
	if !ok {
		return fmt.Errorf("unknown retrieval target %q", target)
	}
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed failed: %w", err)
	}
	rec := Record{
		ID:        core.NewID(),
		Vector:    vector,
		Text:      text,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := idx.Add(ctx, rec); err != nil {
		return fmt.Errorf("index %s add failed: %w", target, err)
	}
	return nil
}

// Query embeds text and searches the named index. Results come back sorted
// by descending score, truncated to k and filtered to score >= minScore. An
// empty result set is not an error; callers render a canned fallback.
func (e *Engine) Query(ctx context.Context, text string, target Target, k int, minScore float64) ([]Result, error) {
	idx, ok := e.indices[target]
	if !ok {
		return nil, fmt.Errorf("unknown retrieval target %q", target)
	}
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	start := time.Now()
	results, err := idx.Search(ctx, vector, k, minScore)
	if err != nil {
		return nil, fmt.Errorf("index %s search failed: %w", target, err)
	}
	e.logger.Debug("retrieval.query",
		"target", string(target), "results", len(results), "duration_ms", time.Since(start).Milliseconds())
	if e.onQuery != nil {
		e.onQuery(target)
	}
	return results, nil
}

// IndexTurn stores one completed conversation turn into the history index.
// The stored text pairs the user message with the assistant reply so a later
// similarity search retrieves the whole exchange.
func (e *Engine) IndexTurn(ctx context.Context, sessionID, userText, assistantText string) error {
	text := fmt.Sprintf("User: %s\nAssistant: %s", userText, assistantText)
	metadata := map[string]string{
		"session_id": sessionID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"user":       userText,
		"assistant":  assistantText,
	}
	return e.Index(ctx, text, metadata, TargetConversationHistory)
}

// FormatKnowledge renders knowledge-base results for the model, or the
// canned no-information string when nothing cleared the threshold.
func FormatKnowledge(results []Result, query string) string {
	if len(results) == 0 {
		return "No relevant information found in the knowledge base about: " + query
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Relevance: %.2f - %s", r.Score, r.Record.Text))
	}
	return strings.Join(parts, "\n\n")
}

// FormatHistory renders conversation-history results for the model, or the
// canned no-history string when nothing cleared the threshold.
func FormatHistory(results []Result) string {
	if len(results) == 0 {
		return "No relevant conversation history found."
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		ts := r.Record.Metadata["timestamp"]
		parts = append(parts, fmt.Sprintf("[Previous conversation from %s]\n%s", ts, r.Record.Text))
	}
	return strings.Join(parts, "\n\n")
}
