package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sceneforge/sceneforge-core/internal/render"
)

// CreateBatchRequest is the payload for submitting a render batch.
type CreateBatchRequest struct {
	Scenes []render.SceneRenderRequest `json:"scenes"`
}

// handleCreateBatch renders a batch of scenes synchronously.
//
// The request blocks until every scene has an outcome, so the API write
// timeout must cover the longest expected batch. Partial failures still
// return 201: the per-scene outcomes carry the detail.
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result := s.dispatcher.Dispatch(r.Context(), req.Scenes)

	if s.store != nil {
		if err := s.store.SaveBatch(r.Context(), result); err != nil {
			// The render already happened; losing history is not worth a 500.
			s.logger.Error("persisting batch failed",
				"batch_id", result.BatchID,
				"error", err,
			)
		}
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleListBatches returns recent batch summaries, newest first.
//
// The optional ?limit query parameter caps the result count (default 50).
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeNotFound(w, "batch history is not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	batches, err := s.store.ListBatches(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing batches failed", "error", err)
		writeInternalError(w, "failed to list batches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batches": batches,
		"count":   len(batches),
	})
}

// handleGetBatch returns one batch summary by ID.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeNotFound(w, "batch history is not enabled")
		return
	}

	id := chi.URLParam(r, "id")
	summary, err := s.store.GetBatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, render.ErrBatchNotFound) {
			writeNotFound(w, "batch not found: "+id)
			return
		}
		s.logger.Error("fetching batch failed", "batch_id", id, "error", err)
		writeInternalError(w, "failed to fetch batch")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleListOutcomes returns the per-scene outcomes of one batch.
func (s *Server) handleListOutcomes(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeNotFound(w, "batch history is not enabled")
		return
	}

	id := chi.URLParam(r, "id")
	outcomes, err := s.store.ListOutcomes(r.Context(), id)
	if err != nil {
		if errors.Is(err, render.ErrBatchNotFound) {
			writeNotFound(w, "batch not found: "+id)
			return
		}
		s.logger.Error("listing outcomes failed", "batch_id", id, "error", err)
		writeInternalError(w, "failed to list outcomes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": id,
		"outcomes": outcomes,
	})
}
