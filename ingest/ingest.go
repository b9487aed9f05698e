// Package ingest loads plain-text documents into the knowledge base. Text is
// split into overlapping chunks and each chunk is embedded and stored through
// the retrieval engine.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/elbchat/elbchat/logging"
	"github.com/elbchat/elbchat/retrieval"
)

// Ingester chunks and indexes documents into the knowledge-base target.
type Ingester struct {
	engine   *retrieval.Engine
	splitter *retrieval.Splitter
	logger   logging.Logger
}

// New creates an ingester with the default chunking parameters.
func New(engine *retrieval.Engine, logger logging.Logger) *Ingester {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Ingester{
		engine:   engine,
		splitter: retrieval.NewSplitter(),
		logger:   logger,
	}
}

// IngestText splits text into chunks and indexes each one. The source label
// ends up in every chunk's metadata. Returns the number of chunks stored.
func (i *Ingester) IngestText(ctx context.Context, text, source string) (int, error) {
	chunks := i.splitter.Split(text)
	for n, chunk := range chunks {
		metadata := map[string]string{
			"source": source,
			"chunk":  strconv.Itoa(n),
		}
		if err := i.engine.Index(ctx, chunk, metadata, retrieval.TargetKnowledgeBase); err != nil {
			return n, fmt.Errorf("index chunk %d of %s: %w", n, source, err)
		}
	}
	i.logger.Info("ingest.text", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

// IngestFile reads a plain-text file and ingests its content. The file's base
// name becomes the source label.
func (i *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return i.IngestText(ctx, string(data), filepath.Base(path))
}

// IngestDir ingests every regular file in dir, non-recursively. Returns the
// total number of chunks stored.
func (i *Ingester) IngestDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}
	total := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		n, err := i.IngestFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
