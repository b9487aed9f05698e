package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elbchat/elbchat/logging"
)

// stubEmbedder maps known texts to fixed 3-dimensional vectors so relevance
// scores are deterministic. Unknown texts embed to a vector orthogonal to
// everything registered.
type stubEmbedder struct {
	vectors map[string][]float32
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{}}
}

func (s *stubEmbedder) add(text string, v []float32) { s.vectors[text] = v }

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestEngine(emb Embedder) *Engine {
	return NewEngine(emb, NewMemoryIndex(), NewMemoryIndex(), logging.NoOpLogger{})
}

func TestQueryFiltersSortsAndTruncates(t *testing.T) {
	emb := newStubEmbedder()
	emb.add("query", []float32{1, 0, 0})
	// Decreasing alignment with the query vector.
	emb.add("exact", []float32{1, 0, 0})     // cos 1.0 -> score 1.0
	emb.add("close", []float32{1, 0.3, 0})   // ~0.96 -> ~0.98
	emb.add("near", []float32{1, 1, 0})      // ~0.71 -> ~0.85
	emb.add("far", []float32{0, 1, 0})       // 0.0 -> 0.5
	emb.add("opposite", []float32{-1, 0, 0}) // -1.0 -> 0.0
	engine := newTestEngine(emb)

	ctx := context.Background()
	for _, text := range []string{"exact", "close", "near", "far", "opposite"} {
		require.NoError(t, engine.Index(ctx, text, nil, TargetKnowledgeBase))
	}

	results, err := engine.Query(ctx, "query", TargetKnowledgeBase, 2, 0.6)
	require.NoError(t, err)

	// Truncated to k=2 even though three records clear minScore.
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Record.Text)
	assert.Equal(t, "close", results[1].Record.Text)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.6)
	}
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestQueryEmptyIndexIsNotAnError(t *testing.T) {
	engine := newTestEngine(newStubEmbedder())

	results, err := engine.Query(context.Background(), "anything", TargetKnowledgeBase, KnowledgeBaseTopK, KnowledgeBaseMinScore)
	require.NoError(t, err)
	assert.Empty(t, results)

	rendered := FormatKnowledge(results, "anything")
	assert.Equal(t, "No relevant information found in the knowledge base about: anything", rendered)
}

func TestQueryNothingClearsThreshold(t *testing.T) {
	emb := newStubEmbedder()
	emb.add("query", []float32{1, 0, 0})
	emb.add("unrelated", []float32{0, 1, 0}) // score 0.5
	engine := newTestEngine(emb)

	require.NoError(t, engine.Index(context.Background(), "unrelated", nil, TargetKnowledgeBase))

	results, err := engine.Query(context.Background(), "query", TargetKnowledgeBase, 5, 0.6)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndicesAreIsolated(t *testing.T) {
	emb := newStubEmbedder()
	emb.add("query", []float32{1, 0, 0})
	emb.add("kb entry", []float32{1, 0, 0})
	engine := newTestEngine(emb)

	require.NoError(t, engine.Index(context.Background(), "kb entry", nil, TargetKnowledgeBase))

	results, err := engine.Query(context.Background(), "query", TargetConversationHistory, HistoryTopK, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexTurnStoresFormattedExchange(t *testing.T) {
	emb := newStubEmbedder()
	turnText := "User: where is the harbor?\nAssistant: At Landungsbrücken."
	emb.add(turnText, []float32{1, 0, 0})
	emb.add("harbor", []float32{1, 0, 0})
	engine := newTestEngine(emb)

	require.NoError(t, engine.IndexTurn(context.Background(), "s1", "where is the harbor?", "At Landungsbrücken."))

	results, err := engine.Query(context.Background(), "harbor", TargetConversationHistory, HistoryTopK, HistoryMinScore)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, turnText, results[0].Record.Text)
	assert.Equal(t, "s1", results[0].Record.Metadata["session_id"])
	assert.NotEmpty(t, results[0].Record.Metadata["timestamp"])

	rendered := FormatHistory(results)
	assert.Contains(t, rendered, "[Previous conversation from ")
	assert.Contains(t, rendered, turnText)
}

func TestFormatHistoryEmpty(t *testing.T) {
	assert.Equal(t, "No relevant conversation history found.", FormatHistory(nil))
}

func TestOnQueryHookFiresPerQuery(t *testing.T) {
	engine := newTestEngine(newStubEmbedder())
	counts := map[Target]int{}
	engine.OnQuery(func(target Target) { counts[target]++ })

	ctx := context.Background()
	_, err := engine.Query(ctx, "q", TargetKnowledgeBase, 5, 0)
	require.NoError(t, err)
	_, err = engine.Query(ctx, "q", TargetKnowledgeBase, 5, 0)
	require.NoError(t, err)
	_, err = engine.Query(ctx, "q", TargetConversationHistory, 3, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, counts[TargetKnowledgeBase])
	assert.Equal(t, 1, counts[TargetConversationHistory])

	// Failed queries do not fire the hook.
	_, err = engine.Query(ctx, "q", Target("bogus"), 1, 0)
	require.Error(t, err)
	assert.Equal(t, 2, counts[TargetKnowledgeBase])
}

func TestUnknownTarget(t *testing.T) {
	engine := newTestEngine(newStubEmbedder())
	err := engine.Index(context.Background(), "x", nil, Target("bogus"))
	assert.Error(t, err)
	_, err = engine.Query(context.Background(), "x", Target("bogus"), 1, 0)
	assert.Error(t, err)
}

func TestConcurrentIndexAndQuery(t *testing.T) {
	emb := newStubEmbedder()
	emb.add("query", []float32{1, 0, 0})
	for i := 0; i < 8; i++ {
		for j := 0; j < 20; j++ {
			emb.add(fmt.Sprintf("doc-%d-%d", i, j), []float32{1, 0, 0})
		}
	}
	engine := newTestEngine(emb)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.NoError(t, engine.Index(ctx, fmt.Sprintf("doc-%d-%d", i, j), nil, TargetKnowledgeBase))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				results, err := engine.Query(ctx, "query", TargetKnowledgeBase, 5, 0)
				assert.NoError(t, err)
				// Results are always internally consistent.
				for k := 1; k < len(results); k++ {
					assert.GreaterOrEqual(t, results[k-1].Score, results[k].Score)
				}
			}
		}()
	}
	wg.Wait()
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	idx := NewMemoryIndex()
	require.NoError(t, idx.Add(context.Background(), Record{ID: "a", Vector: []float32{1, 0, 0}, Text: "a"}))

	err := idx.Add(context.Background(), Record{ID: "b", Vector: []float32{1, 0}, Text: "b"})
	assert.Error(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0}, 1, 0)
	assert.Error(t, err)
}

func TestSplitterShortTextSingleChunk(t *testing.T) {
	s := NewSplitter()
	chunks := s.Split("Hamburg is a city in northern Germany.")
	require.Len(t, chunks, 1)
}

func TestSplitterRespectsChunkSizeWithOverlap(t *testing.T) {
	s := NewSplitter()
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Sentence number %d talks about the harbor and the Elbe river. ", i)
	}
	chunks := s.Split(b.String())
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		// ChunkSize plus one overlap seed is the hard ceiling.
		assert.LessOrEqual(t, len(c), s.ChunkSize+s.Overlap+2)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitterEmptyInput(t *testing.T) {
	assert.Nil(t, NewSplitter().Split("   \n  "))
}
