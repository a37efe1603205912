package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/octadion/rag/internal/store"
)

const (
	retrievalTopK      = 5
	retrievalSeparator = "\n\n---\n\n"
)

// WorkflowResult is the raw outcome of one workflow run, before the
// orchestrator normalizes the response for persistence.
type WorkflowResult struct {
	Response       any
	Sources        []string
	Classification string
}

// classificationReply is the nested shape the escalation path returns; the
// orchestrator unwraps exactly one level of it.
type classificationReply struct {
	Response string `json:"response"`
}

// runRAG answers a query from the assistant's vector store: retrieval runs
// on the raw query text while the generation prompt carries the combined
// conversation history.
func (s *QueryService) runRAG(ctx context.Context, asst *store.Assistant, threadID, query string) (*WorkflowResult, error) {
	if asst.VectorStoreLocation == nil || *asst.VectorStoreLocation == "" {
		return nil, ErrNoVectorStore
	}

	embedder, err := s.llms.Embedder(asst.EmbeddingProvider, asst.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	retriever, err := s.openRetriever(*asst.VectorStoreLocation, embedder.Embed)
	if err != nil {
		return nil, err
	}

	matches, err := retriever.Search(ctx, query, retrievalTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	turns, err := s.contexts.RecentTurns(ctx, asst.TenantID, threadID, ragHistoryLimit)
	if err != nil {
		return nil, err
	}

	pieces := make([]string, len(matches))
	sources := make([]string, len(matches))
	for i, m := range matches {
		pieces[i] = m.Text
		sources[i] = m.ID
	}

	prompt := fmt.Sprintf(ragPromptTemplate,
		strings.Join(pieces, retrievalSeparator),
		Combined(turns, query))

	generator, err := s.llms.Generator(asst.LLMProvider, asst.LLMModel)
	if err != nil {
		return nil, err
	}
	answer, err := generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &WorkflowResult{Response: answer, Sources: sources}, nil
}
