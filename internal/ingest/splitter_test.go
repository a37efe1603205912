package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octadion/rag/internal/vector"
)

func TestSplitWindowsAndOverlap(t *testing.T) {
	text := strings.Repeat("a", 1500)
	docs := []Document{{Source: "doc.txt", Page: 0, Text: text}}

	chunks := NewSplitter().Split(docs)

	require.Len(t, chunks, 2)
	assert.Len(t, []rune(chunks[0].Text), ChunkSize)
	assert.Len(t, []rune(chunks[1].Text), 1500-(ChunkSize-ChunkOverlap))

	// consecutive windows share the overlap region
	first := []rune(chunks[0].Text)
	second := []rune(chunks[1].Text)
	assert.Equal(t, string(first[len(first)-ChunkOverlap:]), string(second[:ChunkOverlap]))
}

func TestSplitIsDeterministic(t *testing.T) {
	docs := []Document{{Source: "doc.txt", Page: 0, Text: strings.Repeat("xyz ", 600)}}
	s := NewSplitter()

	a := s.Split(docs)
	b := s.Split([]Document{{Source: "doc.txt", Page: 0, Text: strings.Repeat("xyz ", 600)}})

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].Text, b[i].Text)
	}
}

func TestSplitShortDocumentSingleChunk(t *testing.T) {
	chunks := NewSplitter().Split([]Document{{Source: "s", Page: 0, Text: "short"}})
	require.Len(t, chunks, 1)
	assert.Equal(t, "s:0:0", chunks[0].ID)
	assert.Equal(t, "short", chunks[0].Text)
}

func TestSplitEmptyDocumentYieldsNothing(t *testing.T) {
	chunks := NewSplitter().Split([]Document{{Source: "s", Page: 0, Text: ""}})
	assert.Empty(t, chunks)
}

func TestAssignChunkIDsSequencePerPage(t *testing.T) {
	chunks := []vector.Chunk{
		{Source: "doc.pdf", Page: 3},
		{Source: "doc.pdf", Page: 3},
		{Source: "doc.pdf", Page: 3},
		{Source: "doc.pdf", Page: 4},
		{Source: "other.pdf", Page: 4},
	}

	chunks = AssignChunkIDs(chunks)

	assert.Equal(t, "doc.pdf:3:0", chunks[0].ID)
	assert.Equal(t, "doc.pdf:3:1", chunks[1].ID)
	assert.Equal(t, "doc.pdf:3:2", chunks[2].ID)
	assert.Equal(t, "doc.pdf:4:0", chunks[3].ID, "sequence restarts on a new page")
	assert.Equal(t, "other.pdf:4:0", chunks[4].ID, "sequence restarts on a new source")
}
