package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a process-local Index backed by a slice with linear cosine
// scan. It fits development, tests and small knowledge bases; swap in
// PgIndex for durable storage. Safe for concurrent use: Search works on a
// snapshot taken under the read lock, so concurrent Adds never corrupt an
// in-flight query.
type MemoryIndex struct {
	mu      sync.RWMutex
	dims    int
	records []Record
}

// NewMemoryIndex creates an empty in-memory index. The vector dimension is
// fixed by the first record added.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add appends a record. All records in one index share the dimension of the
// first insertion; mismatches are rejected.
func (m *MemoryIndex) Add(_ context.Context, rec Record) error {
	if len(rec.Vector) == 0 {
		return fmt.Errorf("record has empty vector")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dims == 0 {
		m.dims = len(rec.Vector)
	} else if len(rec.Vector) != m.dims {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(rec.Vector), m.dims)
	}
	m.records = append(m.records, rec)
	return nil
}

// Len returns the number of stored records.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Search scores every record by cosine similarity mapped into [0,1] and
// returns the top k at or above minScore, best first.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, k int, minScore float64) ([]Result, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	m.mu.RLock()
	if m.dims != 0 && len(vector) != m.dims {
		m.mu.RUnlock()
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(vector), m.dims)
	}
	snapshot := make([]Record, len(m.records))
	copy(snapshot, m.records)
	m.mu.RUnlock()

	results := make([]Result, 0, len(snapshot))
	for _, rec := range snapshot {
		score := relevance(vector, rec.Vector)
		if score >= minScore {
			results = append(results, Result{Record: rec, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// relevance maps cosine similarity from [-1,1] into the [0,1] score space
// the query contract promises.
func relevance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (1 + cos) / 2
}
