package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/octadion/rag/internal/auth"
	"github.com/octadion/rag/internal/core"
	"github.com/octadion/rag/internal/store"
)

type contextKey string

const tenantIDKey contextKey = "tenant_id"

// maxUploadBytes bounds the in-memory part of multipart parsing; larger
// files spill to disk.
const maxUploadBytes = 32 << 20

type APIHandler struct {
	assistants *core.AssistantService
	queries    *core.QueryService
	tokens     *auth.TokenManager
	logger     *zap.Logger
}

func NewAPIHandler(assistants *core.AssistantService, queries *core.QueryService, tokens *auth.TokenManager, logger *zap.Logger) *APIHandler {
	return &APIHandler{assistants: assistants, queries: queries, tokens: tokens, logger: logger}
}

// authMiddleware validates the bearer token and resolves its tenant before
// any handler runs. A valid token for a deleted tenant is rejected too.
func (h *APIHandler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		tenantID, err := h.tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if _, err := h.assistants.GetTenant(r.Context(), tenantID); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unknown tenant")
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantFrom(r *http.Request) string {
	id, _ := r.Context().Value(tenantIDKey).(string)
	return id
}

func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	tenant, err := h.assistants.CreateTenant(r.Context(), req.ID, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	token, err := h.tokens.Generate(tenant.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"tenant": tenant,
		"token":  token,
	})
}

func (h *APIHandler) handleCreateAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type              string `json:"type"`
		LLMModel          string `json:"llm_model"`
		LLMProvider       string `json:"llm_provider"`
		EmbeddingModel    string `json:"embedding_model"`
		EmbeddingProvider string `json:"embedding_provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a := &store.Assistant{
		TenantID:          tenantFrom(r),
		Type:              req.Type,
		LLMModel:          req.LLMModel,
		LLMProvider:       req.LLMProvider,
		EmbeddingModel:    req.EmbeddingModel,
		EmbeddingProvider: req.EmbeddingProvider,
	}
	if err := h.assistants.CreateAssistant(r.Context(), a); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *APIHandler) handleListAssistants(w http.ResponseWriter, r *http.Request) {
	assistants, err := h.assistants.ListAssistants(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assistants)
}

func (h *APIHandler) handleDeleteAssistant(w http.ResponseWriter, r *http.Request) {
	err := h.assistants.DeleteAssistant(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *APIHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	row, res, err := h.assistants.AddUpload(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"), header.Filename, file)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"file":      row,
		"ingestion": res,
	})
}

func (h *APIHandler) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type != "" && req.Type != "website_url" {
		h.writeError(w, core.ErrUnsupportedSourceType)
		return
	}
	if req.URL == "" {
		writeJSONError(w, http.StatusBadRequest, "url is required")
		return
	}

	row, res, err := h.assistants.AddWebSource(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"), req.URL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"file":      row,
		"ingestion": res,
	})
}

func (h *APIHandler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.assistants.ListFiles(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *APIHandler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	err := h.assistants.DeleteFile(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"), chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleResetDatabase wipes the assistant's vector store. The operation is
// irreversible, so it is gated behind an explicit confirm=true query param.
func (h *APIHandler) handleResetDatabase(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeJSONError(w, http.StatusBadRequest, "reset requires confirm=true")
		return
	}
	err := h.assistants.ResetStore(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *APIHandler) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.assistants.CreateThread(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, thread)
}

func (h *APIHandler) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.assistants.ListThreads(r.Context(), tenantFrom(r), chi.URLParam(r, "assistantID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *APIHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.assistants.ListMessages(r.Context(), tenantFrom(r),
		chi.URLParam(r, "assistantID"), chi.URLParam(r, "threadID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// handleQuery runs one turn. With no thread ID in the path a fresh thread is
// created and returned in the response.
func (h *APIHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.queries.HandleTurn(r.Context(), tenantFrom(r),
		chi.URLParam(r, "assistantID"), chi.URLParam(r, "threadID"), req.Query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrUnsupportedAssistantType),
		errors.Is(err, core.ErrUnsupportedSourceType):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
