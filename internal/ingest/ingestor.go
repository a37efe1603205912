// Package ingest turns raw sources into deduplicated, embedded chunks in an
// assistant's vector store. Chunk IDs are derived from content position, so
// re-ingesting the same source is idempotent.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/octadion/rag/internal/vector"
)

// Embedder produces the embedding vector for one chunk of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the write side of a vector store as ingestion sees it.
type Index interface {
	ExistingIDs(ctx context.Context, candidates []string) (map[string]struct{}, error)
	Add(ctx context.Context, chunk vector.Chunk, embedding []float32) error
}

// Result reports what one ingestion call did.
type Result struct {
	Examined       int `json:"examined"`
	AlreadyPresent int `json:"already_present"`
	Inserted       int `json:"inserted"`
	Failed         int `json:"failed"`
}

type Ingestor struct {
	splitter Splitter
	logger   *zap.Logger
}

func NewIngestor(logger *zap.Logger) *Ingestor {
	return &Ingestor{splitter: NewSplitter(), logger: logger}
}

// Ingest loads every source, splits the documents into chunks and writes the
// chunks that are not already present. All loading happens up front: if any
// loader fails, the call fails and nothing is written. The existing-ID
// snapshot is taken exactly once, before the first write; chunks inserted
// during this call are tracked locally so duplicate IDs within one batch are
// only written once.
func (ing *Ingestor) Ingest(ctx context.Context, loaders []Loader, idx Index, embedder Embedder) (Result, error) {
	var docs []Document
	for _, loader := range loaders {
		loaded, err := loader.Load(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("loading source: %w", err)
		}
		docs = append(docs, loaded...)
	}

	chunks := ing.splitter.Split(docs)

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	existing, err := idx.ExistingIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("checking existing chunks: %w", err)
	}

	res := Result{Examined: len(chunks)}
	for _, chunk := range chunks {
		if _, ok := existing[chunk.ID]; ok {
			res.AlreadyPresent++
			continue
		}

		embedding, err := embedder.Embed(ctx, chunk.Text)
		if err != nil {
			ing.logger.Warn("embedding chunk failed, skipping",
				zap.String("chunk_id", chunk.ID), zap.Error(err))
			res.Failed++
			continue
		}
		if err := idx.Add(ctx, chunk, embedding); err != nil {
			ing.logger.Warn("inserting chunk failed, skipping",
				zap.String("chunk_id", chunk.ID), zap.Error(err))
			res.Failed++
			continue
		}

		existing[chunk.ID] = struct{}{}
		res.Inserted++
	}

	ing.logger.Info("ingestion finished",
		zap.Int("examined", res.Examined),
		zap.Int("already_present", res.AlreadyPresent),
		zap.Int("inserted", res.Inserted),
		zap.Int("failed", res.Failed))
	return res, nil
}
