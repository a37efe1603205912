// Package core holds the services behind the HTTP layer: query
// orchestration, workflow routing, context assembly and assistant
// lifecycle management.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/octadion/rag/internal/store"
	"github.com/octadion/rag/internal/vector"
)

// LLMFactory builds provider-specific generators and embedders.
type LLMFactory interface {
	Generator(provider, model string) (Generator, error)
	Embedder(provider, model string) (Embedder, error)
}

// Generator and Embedder mirror the llm package contracts so core depends
// only on behavior.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever is the read side of an assistant's vector store.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]vector.Match, error)
}

// OpenRetrieverFunc opens the retriever for a store location with the
// assistant's embedding function bound.
type OpenRetrieverFunc func(location string, embed vector.EmbedFunc) (Retriever, error)

// TurnResult is what one handled query turn returns to the API layer.
type TurnResult struct {
	Response       string   `json:"response"`
	Sources        []string `json:"sources,omitempty"`
	ThreadID       string   `json:"thread_id"`
	Classification string   `json:"classification,omitempty"`
}

// QueryService orchestrates a query turn: thread resolution, workflow
// routing by assistant type, and all-or-nothing persistence of the
// resulting message pair.
type QueryService struct {
	store         *store.Store
	openRetriever OpenRetrieverFunc
	llms          LLMFactory
	contexts      *ContextAssembler
	logger        *zap.Logger
}

func NewQueryService(s *store.Store, open OpenRetrieverFunc, llms LLMFactory, logger *zap.Logger) *QueryService {
	return &QueryService{
		store:         s,
		openRetriever: open,
		llms:          llms,
		contexts:      NewContextAssembler(s),
		logger:        logger,
	}
}

// HandleTurn runs one query against an assistant. An empty threadID starts a
// new thread. The user/assistant message pair is persisted only after the
// workflow succeeds; a workflow error leaves the thread untouched.
func (s *QueryService) HandleTurn(ctx context.Context, tenantID, assistantID, threadID, query string) (*TurnResult, error) {
	asst, err := s.store.GetAssistant(ctx, tenantID, assistantID)
	if err != nil {
		return nil, err
	}

	if threadID == "" {
		thread := &store.Thread{AssistantID: assistantID, TenantID: tenantID}
		if err := s.store.CreateThread(ctx, thread); err != nil {
			return nil, err
		}
		threadID = thread.ID
	}

	var result *WorkflowResult
	switch asst.Type {
	case store.AssistantTypeRAG:
		result, err = s.runRAG(ctx, asst, threadID, query)
	case store.AssistantTypeClassification:
		result, err = s.runClassification(ctx, asst, threadID, query)
	default:
		err = fmt.Errorf("assistant type %q: %w", asst.Type, ErrUnsupportedAssistantType)
	}
	if err != nil {
		return nil, err
	}

	response := normalizeResponse(result.Response)

	pair, err := json.Marshal([]store.Turn{
		{Content: query, Role: "user"},
		{Content: response, Role: "assistant"},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding message pair: %w", err)
	}
	msg := &store.Message{
		ThreadID:    threadID,
		AssistantID: assistantID,
		TenantID:    tenantID,
		MessageText: string(pair),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("handled query turn",
		zap.String("tenant_id", tenantID),
		zap.String("assistant_id", assistantID),
		zap.String("thread_id", threadID),
		zap.String("assistant_type", asst.Type))

	return &TurnResult{
		Response:       response,
		Sources:        result.Sources,
		ThreadID:       threadID,
		Classification: result.Classification,
	}, nil
}

// normalizeResponse flattens a workflow response to the string that gets
// persisted and returned. Exactly one level of a nested reply is unwrapped.
func normalizeResponse(response any) string {
	switch v := response.(type) {
	case string:
		return v
	case *classificationReply:
		return v.Response
	case classificationReply:
		return v.Response
	default:
		return fmt.Sprint(v)
	}
}

// IsNotFound reports whether an error maps to a missing resource, across
// the store and workflow layers.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
