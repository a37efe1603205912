// Package vector wraps a persistent embedded vector index. Each assistant
// owns one store, identified by its on-disk location.
package vector

import (
	"context"
	"fmt"
	"os"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const collectionName = "chunks"

// Chunk is one fixed-size window of a source document, the unit of
// embedding and retrieval.
type Chunk struct {
	ID     string
	Source string
	Page   int
	Text   string
}

// Match is one similarity-search hit, best first.
type Match struct {
	ID    string
	Text  string
	Score float32
}

// EmbedFunc turns text into an embedding vector. It must be stable across
// calls for identical input.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Store is one assistant's persistent chunk index.
type Store struct {
	col    *chromem.Collection
	logger *zap.Logger
}

func open(location string, embed EmbedFunc, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(location, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", location, err)
	}

	db, err := chromem.NewPersistentDB(location, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector store at %s: %w", location, err)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, chromem.EmbeddingFunc(embed))
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}

	return &Store{col: col, logger: logger}, nil
}

func (s *Store) Count() int {
	return s.col.Count()
}

// ExistingIDs returns the subset of candidates already present in the
// store. It is called once per ingestion, before any write, so the dedup
// decision for the whole batch is made against a single snapshot.
func (s *Store) ExistingIDs(ctx context.Context, candidates []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	for _, id := range candidates {
		if _, ok := existing[id]; ok {
			continue
		}
		if _, err := s.col.GetByID(ctx, id); err == nil {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

func (s *Store) Add(ctx context.Context, chunk Chunk, embedding []float32) error {
	doc := chromem.Document{
		ID:      chunk.ID,
		Content: chunk.Text,
		Metadata: map[string]string{
			"source": chunk.Source,
			"page":   strconv.Itoa(chunk.Page),
		},
		Embedding: embedding,
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("adding chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// Search runs similarity search for the raw query text and returns up to k
// matches with scores, best first. k is capped at the store size.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Match, error) {
	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{ID: r.ID, Text: r.Content, Score: r.Similarity}
	}
	return matches, nil
}
