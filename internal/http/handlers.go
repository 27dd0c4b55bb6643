package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"therapy-session-service/internal/models"
	"therapy-session-service/internal/observability/logging"
	"therapy-session-service/internal/observability/metrics"
	"therapy-session-service/internal/service/ai"
	"therapy-session-service/internal/service/pipeline"
	"therapy-session-service/internal/store"
)

// uploadField is the multipart form field carrying the audio file.
const uploadField = "audio"

// SessionHandler serves the /sessions routes.
type SessionHandler struct {
	processor      *pipeline.Processor
	sessions       store.Store
	embedder       ai.Embedder
	maxUploadBytes int64
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewSessionHandler constructs the handler with its injected dependencies.
func NewSessionHandler(processor *pipeline.Processor, sessions store.Store, embedder ai.Embedder, maxUploadBytes int64) *SessionHandler {
	return &SessionHandler{
		processor:      processor,
		sessions:       sessions,
		embedder:       embedder,
		maxUploadBytes: maxUploadBytes,
		metrics:        metrics.DefaultMetrics,
		logger:         logging.WithComponent("http"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Upload handles POST /sessions/upload: multipart form with field "audio".
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: `no audio file provided, expected multipart/form-data field "audio"`,
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read uploaded file")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read uploaded file"})
		return
	}

	rec, err := h.processor.Process(r.Context(), pipeline.Upload{
		Filename: header.Filename,
		Mimetype: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Data:     data,
	})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewUploadResponse(rec))
}

// List handles GET /sessions: all sessions, newest first.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordRead("list")

	records := h.sessions.ListAll(r.Context())
	out := make([]models.SessionSummary, len(records))
	for i, rec := range records {
		out[i] = models.NewSessionSummary(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordRead("get")

	id := chi.URLParam(r, "id")
	rec, ok := h.sessions.GetByID(r.Context(), id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, models.NewSessionDetail(rec))
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Search handles POST /sessions/search: embeds the query text and returns
// similar sessions.
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	h.metrics.RecordSearch()
	h.metrics.RecordRead("search")

	vec, err := h.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to embed search query")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "embed stage failed"})
		return
	}

	records := h.sessions.FindSimilar(r.Context(), vec, req.Limit)
	out := make([]models.SessionSummary, len(records))
	for i, rec := range records {
		out[i] = models.NewSessionSummary(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// writePipelineError maps pipeline errors onto the REST surface: client
// input problems are 4xx, provider stage failures 502, storage 500. The
// body names the failed stage without exposing the provider error.
func (h *SessionHandler) writePipelineError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrNoFile) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: `no audio file provided, expected multipart/form-data field "audio"`,
		})
		return
	}

	stage, ok := ai.FailedStage(err)
	if !ok {
		h.logger.Error().Err(err).Msg("Upload failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to process upload"})
		return
	}

	if stage == ai.StageStore {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to store session"})
		return
	}
	writeJSON(w, http.StatusBadGateway, errorResponse{Error: fmt.Sprintf("%s stage failed", stage)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.WithComponent("http")
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}
