package ingest

import (
	"fmt"

	"github.com/octadion/rag/internal/vector"
)

const (
	// ChunkSize and ChunkOverlap are measured in runes. The step between
	// consecutive windows is their difference, so each chunk repeats the
	// tail of the previous one.
	ChunkSize    = 800
	ChunkOverlap = 80
)

// Splitter cuts page text into fixed-size overlapping windows. Splitting is
// deterministic: the same page always yields the same chunks in the same
// order, which is what makes chunk IDs stable across re-ingestion.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter() Splitter {
	return Splitter{Size: ChunkSize, Overlap: ChunkOverlap}
}

// Split windows every document and assigns IDs of the form
// "{source}:{page}:{seq}". The sequence counter restarts at 0 whenever the
// (source, page) pair changes, so a chunk's ID depends only on its source,
// its page and its position within that page.
func (s Splitter) Split(docs []Document) []vector.Chunk {
	var chunks []vector.Chunk
	for _, doc := range docs {
		for _, text := range s.windows(doc.Text) {
			chunks = append(chunks, vector.Chunk{
				Source: doc.Source,
				Page:   doc.Page,
				Text:   text,
			})
		}
	}
	return AssignChunkIDs(chunks)
}

func (s Splitter) windows(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.Size - s.Overlap
	if step < 1 {
		step = 1
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.Size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// AssignChunkIDs stamps each chunk with "{source}:{page}:{seq}". Chunks are
// expected in emission order; seq resets whenever the (source, page) pair
// changes.
func AssignChunkIDs(chunks []vector.Chunk) []vector.Chunk {
	seq := 0
	for i := range chunks {
		if i > 0 && (chunks[i].Source != chunks[i-1].Source || chunks[i].Page != chunks[i-1].Page) {
			seq = 0
		}
		chunks[i].ID = fmt.Sprintf("%s:%d:%d", chunks[i].Source, chunks[i].Page, seq)
		seq++
	}
	return chunks
}
