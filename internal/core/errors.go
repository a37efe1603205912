package core

import (
	"fmt"

	"github.com/octadion/rag/internal/store"
)

var (
	// ErrUnsupportedAssistantType is returned when a query reaches an
	// assistant whose type has no workflow.
	ErrUnsupportedAssistantType = fmt.Errorf("unsupported assistant type")

	// ErrUnsupportedSourceType is returned for source kinds the ingestion
	// endpoints do not accept.
	ErrUnsupportedSourceType = fmt.Errorf("unsupported source type")

	// ErrNoVectorStore means the assistant has never ingested a source, so
	// there is nothing to retrieve from. It matches store.ErrNotFound.
	ErrNoVectorStore = fmt.Errorf("assistant has no vector store: %w", store.ErrNotFound)
)
