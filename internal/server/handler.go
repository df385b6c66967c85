package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storesync/typesync/internal/alias"
	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/index"
	"github.com/storesync/typesync/internal/syncer"
)

// SyncHandler serves the admin sync API.
type SyncHandler struct {
	syncer  *syncer.Syncer
	idx     index.Client
	aliases *alias.Manager
	logger  *slog.Logger
}

// NewSyncHandler creates the admin API handler.
func NewSyncHandler(s *syncer.Syncer, idx index.Client, aliases *alias.Manager, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		syncer:  s,
		idx:     idx,
		aliases: aliases,
		logger:  logger,
	}
}

type runResponse struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Target   string   `json:"target"`
	Previous string   `json:"previous,omitempty"`
	Pages    int      `json:"pages"`
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Deleted  []string `json:"deleted,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Duration string   `json:"duration"`
}

func toRunResponse(run *syncer.Run) runResponse {
	return runResponse{
		ID:       run.ID,
		Type:     string(run.Type),
		Target:   run.Target,
		Previous: run.Previous,
		Pages:    run.Pages,
		Imported: run.Imported,
		Failed:   run.Failed,
		Deleted:  run.Deleted,
		Errors:   run.Errors,
		Duration: run.Duration.String(),
	}
}

// Sync runs a full sync of one collection type and returns the run report.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	t, err := domain.ParseCollectionType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", err.Error())
		return
	}

	run, err := h.syncer.Run(r.Context(), t)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			writeError(w, http.StatusConflict, "SYNC_IN_PROGRESS", err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "sync failed",
			slog.String("type", string(t)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "SYNC_FAILED", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// SyncAll runs a full sync of every collection type.
func (h *SyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	runs, err := h.syncer.RunAll(r.Context())

	responses := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, toRunResponse(run))
	}

	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			writeError(w, http.StatusConflict, "SYNC_IN_PROGRESS", err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "sync all failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code":    "SYNC_FAILED",
			"message": err.Error(),
			"runs":    responses,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": responses})
}

type collectionResponse struct {
	Name         string `json:"name"`
	NumDocuments int64  `json:"num_documents"`
	CreatedAt    string `json:"created_at"`
	Active       bool   `json:"active"`
}

// Collections lists physical collections and marks which ones the aliases
// currently point at.
func (h *SyncHandler) Collections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.idx.ListCollections(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "INDEX_UNAVAILABLE", err.Error())
		return
	}

	active := h.activeCollections(r.Context())

	responses := make([]collectionResponse, 0, len(cols))
	for _, col := range cols {
		responses = append(responses, collectionResponse{
			Name:         col.Name,
			NumDocuments: col.NumDocuments,
			CreatedAt:    col.CreatedAt.Format(time.RFC3339),
			Active:       active[col.Name],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"collections": responses})
}

func (h *SyncHandler) activeCollections(ctx context.Context) map[string]bool {
	active := make(map[string]bool)
	for _, t := range domain.AllCollectionTypes() {
		current, err := h.aliases.CurrentCollection(ctx, t)
		if err != nil || current == "" {
			continue
		}
		active[current] = true
	}
	return active
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
