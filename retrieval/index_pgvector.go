package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgIndex is a durable Index on PostgreSQL with the pgvector extension. Each
// logical index gets its own table. The pool must have pgvector types
// registered (pgxvector.RegisterTypes in the pool's AfterConnect hook).
type PgIndex struct {
	pool  *pgxpool.Pool
	table string
	dims  int
}

// NewPgIndex creates an index over the named table with a fixed vector
// dimension. Call EnsureSchema once at startup before first use.
func NewPgIndex(pool *pgxpool.Pool, table string, dims int) *PgIndex {
	return &PgIndex{pool: pool, table: table, dims: dims}
}

// EnsureSchema creates the extension and backing table if missing. The table
// name comes from configuration, not user input.
func (p *PgIndex) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		content TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, p.table, p.dims)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}
	return nil
}

// Add appends a record. Records are append-only; a duplicate id is an error
// rather than an overwrite.
func (p *PgIndex) Add(ctx context.Context, rec Record) error {
	if len(rec.Vector) != p.dims {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(rec.Vector), p.dims)
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (id, embedding, content, metadata, created_at) VALUES ($1, $2, $3, $4, $5)",
		p.table,
	)
	_, err = p.pool.Exec(ctx, query,
		rec.ID, pgvector.NewVector(rec.Vector), rec.Text, metadata, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Search runs a cosine-distance scan. The pgvector <=> operator yields
// distance = 1 - cos, so (2 - distance) / 2 recovers the same [0,1]
// relevance space the in-memory index produces.
func (p *PgIndex) Search(ctx context.Context, vector []float32, k int, minScore float64) ([]Result, error) {
	if len(vector) != p.dims {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(vector), p.dims)
	}
	query := fmt.Sprintf(`SELECT id, content, metadata, created_at,
		(2 - (embedding <=> $1)) / 2 AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, p.table)
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			rec      Record
			metadata []byte
			score    float64
		)
		if err := rows.Scan(&rec.ID, &rec.Text, &metadata, &rec.CreatedAt, &score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if score < minScore {
			continue
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		results = append(results, Result{Record: rec, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
