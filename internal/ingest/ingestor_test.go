package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/octadion/rag/internal/vector"
)

type fakeIndex struct {
	docs map[string]vector.Chunk
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]vector.Chunk)}
}

func (f *fakeIndex) ExistingIDs(_ context.Context, candidates []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	for _, id := range candidates {
		if _, ok := f.docs[id]; ok {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

func (f *fakeIndex) Add(_ context.Context, chunk vector.Chunk, _ []float32) error {
	f.docs[chunk.ID] = chunk
	return nil
}

type fakeEmbedder struct {
	failOn string
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, fmt.Errorf("embedding unavailable")
	}
	return []float32{1, 0, 0}, nil
}

type staticLoader struct {
	docs []Document
	err  error
}

func (l staticLoader) Load(context.Context) ([]Document, error) {
	return l.docs, l.err
}

func TestIngestInsertsAllChunks(t *testing.T) {
	ing := NewIngestor(zap.NewNop())
	idx := newFakeIndex()
	loader := staticLoader{docs: []Document{
		{Source: "a.txt", Page: 0, Text: strings.Repeat("alpha ", 300)},
	}}

	res, err := ing.Ingest(context.Background(), []Loader{loader}, idx, &fakeEmbedder{})
	require.NoError(t, err)

	assert.Equal(t, res.Examined, res.Inserted)
	assert.Zero(t, res.AlreadyPresent)
	assert.Zero(t, res.Failed)
	assert.Len(t, idx.docs, res.Inserted)
}

func TestIngestIsIdempotent(t *testing.T) {
	ing := NewIngestor(zap.NewNop())
	idx := newFakeIndex()
	loader := staticLoader{docs: []Document{
		{Source: "a.txt", Page: 0, Text: strings.Repeat("alpha ", 300)},
	}}

	first, err := ing.Ingest(context.Background(), []Loader{loader}, idx, &fakeEmbedder{})
	require.NoError(t, err)
	require.Positive(t, first.Inserted)

	second, err := ing.Ingest(context.Background(), []Loader{loader}, idx, &fakeEmbedder{})
	require.NoError(t, err)

	assert.Equal(t, first.Examined, second.Examined)
	assert.Equal(t, first.Inserted, second.AlreadyPresent)
	assert.Zero(t, second.Inserted)
	assert.Len(t, idx.docs, first.Inserted)
}

func TestIngestMultipleLoadersShareOneBatch(t *testing.T) {
	ing := NewIngestor(zap.NewNop())
	idx := newFakeIndex()
	a := staticLoader{docs: []Document{{Source: "a.txt", Page: 0, Text: "first source"}}}
	b := staticLoader{docs: []Document{{Source: "b.txt", Page: 0, Text: "second source"}}}

	res, err := ing.Ingest(context.Background(), []Loader{a, b}, idx, &fakeEmbedder{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Examined)
	assert.Equal(t, 2, res.Inserted)
	assert.Contains(t, idx.docs, "a.txt:0:0")
	assert.Contains(t, idx.docs, "b.txt:0:0")
}

func TestIngestEmbedFailureSkipsChunk(t *testing.T) {
	ing := NewIngestor(zap.NewNop())
	idx := newFakeIndex()
	loader := staticLoader{docs: []Document{
		{Source: "a.txt", Page: 0, Text: "good text"},
		{Source: "b.txt", Page: 0, Text: "bad text"},
	}}

	res, err := ing.Ingest(context.Background(), []Loader{loader}, idx, &fakeEmbedder{failOn: "bad"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Examined)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, idx.docs, "a.txt:0:0")
	assert.NotContains(t, idx.docs, "b.txt:0:0")
}

func TestIngestLoaderFailureWritesNothing(t *testing.T) {
	ing := NewIngestor(zap.NewNop())
	idx := newFakeIndex()
	embedder := &fakeEmbedder{}
	good := staticLoader{docs: []Document{{Source: "a.txt", Page: 0, Text: "text"}}}
	bad := staticLoader{err: fmt.Errorf("source unreachable")}

	_, err := ing.Ingest(context.Background(), []Loader{good, bad}, idx, embedder)
	require.Error(t, err)

	assert.Empty(t, idx.docs)
	assert.Zero(t, embedder.calls)
}
