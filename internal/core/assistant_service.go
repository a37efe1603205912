package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octadion/rag/internal/ingest"
	"github.com/octadion/rag/internal/store"
	"github.com/octadion/rag/internal/vector"
)

// AssistantService manages tenants, assistants and their knowledge sources:
// file artifacts on disk, file rows in the database, and chunks in the
// per-assistant vector store.
type AssistantService struct {
	store    *store.Store
	vectors  *vector.Manager
	llms     LLMFactory
	ingestor *ingest.Ingestor
	dataDir  string
	logger   *zap.Logger
}

func NewAssistantService(s *store.Store, vectors *vector.Manager, llms LLMFactory, ingestor *ingest.Ingestor, dataDir string, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		store:    s,
		vectors:  vectors,
		llms:     llms,
		ingestor: ingestor,
		dataDir:  dataDir,
		logger:   logger,
	}
}

func (s *AssistantService) CreateTenant(ctx context.Context, id, name string) (*store.Tenant, error) {
	return s.store.CreateTenant(ctx, id, name)
}

func (s *AssistantService) GetTenant(ctx context.Context, id string) (*store.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// CreateAssistant validates the assistant type and persists the row. An
// empty type defaults to a retrieval assistant.
func (s *AssistantService) CreateAssistant(ctx context.Context, a *store.Assistant) error {
	switch a.Type {
	case "":
		a.Type = store.AssistantTypeRAG
	case store.AssistantTypeRAG, store.AssistantTypeClassification:
	default:
		return fmt.Errorf("assistant type %q: %w", a.Type, ErrUnsupportedAssistantType)
	}
	return s.store.CreateAssistant(ctx, a)
}

func (s *AssistantService) assistantDir(tenantID, assistantID string) string {
	return filepath.Join(s.dataDir, tenantID, assistantID)
}

func (s *AssistantService) storeLocation(tenantID, assistantID string) string {
	return filepath.Join(s.assistantDir(tenantID, assistantID), "store")
}

// AddUpload saves an uploaded document under the assistant's data directory
// and ingests it. The assistant's vector store location is assigned on the
// first source and reused afterwards.
func (s *AssistantService) AddUpload(ctx context.Context, tenantID, assistantID, fileName string, content io.Reader) (*store.File, ingest.Result, error) {
	asst, err := s.store.GetAssistant(ctx, tenantID, assistantID)
	if err != nil {
		return nil, ingest.Result{}, err
	}

	fileID := uuid.NewString()
	fileDir := filepath.Join(s.assistantDir(tenantID, assistantID), fileID)
	if err := os.MkdirAll(fileDir, 0o755); err != nil {
		return nil, ingest.Result{}, fmt.Errorf("creating file directory: %w", err)
	}

	path := filepath.Join(fileDir, filepath.Base(fileName))
	dst, err := os.Create(path)
	if err != nil {
		return nil, ingest.Result{}, fmt.Errorf("saving upload: %w", err)
	}
	if _, err := io.Copy(dst, content); err != nil {
		dst.Close()
		return nil, ingest.Result{}, fmt.Errorf("saving upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, ingest.Result{}, fmt.Errorf("saving upload: %w", err)
	}

	return s.ingestSource(ctx, asst, fileID, fileName, path, ingest.DirectoryLoader{Dir: fileDir})
}

// AddWebSource registers a website URL as a source. The URL is kept as a
// small artifact next to uploads so deletion works the same way for both.
func (s *AssistantService) AddWebSource(ctx context.Context, tenantID, assistantID, url string) (*store.File, ingest.Result, error) {
	asst, err := s.store.GetAssistant(ctx, tenantID, assistantID)
	if err != nil {
		return nil, ingest.Result{}, err
	}

	fileID := uuid.NewString()
	fileDir := filepath.Join(s.assistantDir(tenantID, assistantID), fileID)
	if err := os.MkdirAll(fileDir, 0o755); err != nil {
		return nil, ingest.Result{}, fmt.Errorf("creating source directory: %w", err)
	}

	path := filepath.Join(fileDir, "source.url")
	if err := os.WriteFile(path, []byte(url), 0o644); err != nil {
		return nil, ingest.Result{}, fmt.Errorf("saving source reference: %w", err)
	}

	return s.ingestSource(ctx, asst, fileID, url, path, ingest.WebLoader{URL: url})
}

func (s *AssistantService) ingestSource(ctx context.Context, asst *store.Assistant, fileID, name, artifactPath string, loader ingest.Loader) (*store.File, ingest.Result, error) {
	location, err := s.store.SetVectorStoreLocation(ctx, asst.TenantID, asst.ID, s.storeLocation(asst.TenantID, asst.ID))
	if err != nil {
		return nil, ingest.Result{}, err
	}

	file := &store.File{
		ID:                  fileID,
		FileName:            name,
		FileLocation:        artifactPath,
		AssistantID:         asst.ID,
		VectorStoreLocation: location,
		TenantID:            asst.TenantID,
	}
	if err := s.store.CreateFile(ctx, file); err != nil {
		return nil, ingest.Result{}, err
	}

	embedder, err := s.llms.Embedder(asst.EmbeddingProvider, asst.EmbeddingModel)
	if err != nil {
		return nil, ingest.Result{}, err
	}

	unlock := s.vectors.Lock(location)
	defer unlock()

	vs, err := s.vectors.Open(location, embedder.Embed)
	if err != nil {
		return nil, ingest.Result{}, err
	}

	res, err := s.ingestor.Ingest(ctx, []ingest.Loader{loader}, vs, embedder)
	if err != nil {
		return nil, ingest.Result{}, err
	}

	s.logger.Info("ingested source",
		zap.String("tenant_id", asst.TenantID),
		zap.String("assistant_id", asst.ID),
		zap.String("file_id", fileID),
		zap.Int("inserted", res.Inserted))
	return file, res, nil
}

// DeleteFile removes the source's on-disk artifacts and then its row. If
// the artifact removal fails the row stays, so the source remains listed
// and deletable. Already-ingested chunks stay in the vector store.
func (s *AssistantService) DeleteFile(ctx context.Context, tenantID, assistantID, fileID string) error {
	f, err := s.store.GetFile(ctx, tenantID, assistantID, fileID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Dir(f.FileLocation)); err != nil {
		return fmt.Errorf("removing file artifacts: %w", err)
	}
	return s.store.DeleteFile(ctx, tenantID, assistantID, fileID)
}

// DeleteAssistant removes the assistant's vector store, its data directory
// and all of its rows.
func (s *AssistantService) DeleteAssistant(ctx context.Context, tenantID, assistantID string) error {
	asst, err := s.store.GetAssistant(ctx, tenantID, assistantID)
	if err != nil {
		return err
	}

	if asst.VectorStoreLocation != nil && *asst.VectorStoreLocation != "" {
		if err := s.vectors.Reset(*asst.VectorStoreLocation); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(s.assistantDir(tenantID, assistantID)); err != nil {
		return fmt.Errorf("removing assistant data: %w", err)
	}

	if err := s.store.DeleteAssistantCascade(ctx, tenantID, assistantID); err != nil {
		return err
	}
	s.logger.Info("deleted assistant",
		zap.String("tenant_id", tenantID), zap.String("assistant_id", assistantID))
	return nil
}

// ResetStore wipes the assistant's vector index without touching file rows
// or artifacts. Re-ingestion starts from an empty store.
func (s *AssistantService) ResetStore(ctx context.Context, tenantID, assistantID string) error {
	asst, err := s.store.GetAssistant(ctx, tenantID, assistantID)
	if err != nil {
		return err
	}
	if asst.VectorStoreLocation == nil || *asst.VectorStoreLocation == "" {
		return ErrNoVectorStore
	}
	return s.vectors.Reset(*asst.VectorStoreLocation)
}

func (s *AssistantService) GetAssistant(ctx context.Context, tenantID, assistantID string) (*store.Assistant, error) {
	return s.store.GetAssistant(ctx, tenantID, assistantID)
}

func (s *AssistantService) ListAssistants(ctx context.Context, tenantID string) ([]store.Assistant, error) {
	return s.store.ListAssistants(ctx, tenantID)
}

func (s *AssistantService) ListFiles(ctx context.Context, tenantID, assistantID string) ([]store.File, error) {
	return s.store.ListFiles(ctx, tenantID, assistantID)
}

func (s *AssistantService) CreateThread(ctx context.Context, tenantID, assistantID string) (*store.Thread, error) {
	if _, err := s.store.GetAssistant(ctx, tenantID, assistantID); err != nil {
		return nil, err
	}
	thread := &store.Thread{AssistantID: assistantID, TenantID: tenantID}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *AssistantService) ListThreads(ctx context.Context, tenantID, assistantID string) ([]store.Thread, error) {
	if _, err := s.store.GetAssistant(ctx, tenantID, assistantID); err != nil {
		return nil, err
	}
	return s.store.ListThreads(ctx, tenantID, assistantID)
}

func (s *AssistantService) ListMessages(ctx context.Context, tenantID, assistantID, threadID string) ([]store.Message, error) {
	if _, err := s.store.GetAssistant(ctx, tenantID, assistantID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, tenantID, assistantID, threadID)
}
