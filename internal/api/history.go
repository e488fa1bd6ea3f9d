package api

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"aitools-backend/internal/database"
	"aitools-backend/internal/metrics"
	"aitools-backend/pkg/api"
)

const (
	msgUserIDRequired  = "User ID is required"
	msgInvalidDelete   = "Invalid ID or User ID"
	msgFetchFailed     = "Failed to fetch history"
	msgDeleteFailed    = "Failed to delete history item"
	msgHistoryNotFound = "History item not found"
)

func historyLimit(limit int) int {
	if limit <= 0 {
		return database.DefaultHistoryLimit
	}
	return min(limit, database.MaxHistoryLimit)
}

func (s *AIService) ListHistory(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.HistoryParams](r)
	if err != nil {
		return nil, err
	}

	if params.UserID == "" {
		return nil, CodedErrorf(http.StatusBadRequest, msgUserIDRequired)
	}

	ctx := r.Context()
	limit := historyLimit(params.Limit)

	cached, ok, err := s.cache.Get(ctx, params.UserID, limit)
	switch {
	case err != nil:
		metrics.HistoryCacheLookups.WithLabelValues("error").Inc()
		slog.Warn("error reading history cache", "user_id", params.UserID, "error", err)
	case ok:
		metrics.HistoryCacheLookups.WithLabelValues("hit").Inc()
		return api.HistoryResponse{Results: convertHistories(cached)}, nil
	default:
		metrics.HistoryCacheLookups.WithLabelValues("miss").Inc()
	}

	// taken before the query so a write that lands meanwhile voids the fill
	gen, genErr := s.cache.Generation(ctx, params.UserID)
	if genErr != nil {
		slog.Warn("error reading history cache generation", "user_id", params.UserID, "error", genErr)
	}

	history, err := database.ListHistory(ctx, s.db, params.UserID, limit)
	if err != nil {
		return nil, DetailedError(http.StatusInternalServerError, msgFetchFailed, err)
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, params.UserID, gen, limit, history); err != nil {
			slog.Warn("error writing history cache", "user_id", params.UserID, "error", err)
		}
	}

	return api.HistoryResponse{Results: convertHistories(history)}, nil
}

// DeleteHistory removes one record owned by the caller. Deleting a record that
// does not exist or belongs to someone else succeeds without effect.
func (s *AIService) DeleteHistory(r *http.Request) (any, error) {
	id, idErr := URLParamID(r, "id")
	req, bodyErr := ParseRequest[api.DeleteHistoryRequest](r)
	if idErr != nil || bodyErr != nil || req.UserID == "" {
		return nil, CodedErrorf(http.StatusBadRequest, msgInvalidDelete)
	}

	ctx := r.Context()

	deleted, err := database.DeleteHistory(ctx, s.db, id, req.UserID)
	if err != nil {
		return nil, DetailedError(http.StatusInternalServerError, msgDeleteFailed, err)
	}

	if deleted > 0 {
		s.invalidateHistory(ctx, req.UserID)
		if s.archive != nil {
			if err := s.archive.Delete(ctx, req.UserID, id); err != nil {
				slog.Warn("error removing archived image", "history_id", id, "error", err)
			}
		}
	}

	slog.Info("deleted history item", "history_id", id, "deleted", deleted)

	return api.DeleteHistoryResponse{Success: true}, nil
}

// GetHistoryImage serves the png of an image record owned by the caller,
// preferring the archived copy when an archive is configured.
func (s *AIService) GetHistoryImage(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamID(r, "id")
	if err != nil {
		WriteError(w, CodedErrorf(http.StatusBadRequest, msgInvalidDelete))
		return
	}

	params, err := ParseRequestQueryParams[api.HistoryParams](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if params.UserID == "" {
		WriteError(w, CodedErrorf(http.StatusBadRequest, msgUserIDRequired))
		return
	}

	ctx := r.Context()

	h, err := database.GetHistory(ctx, s.db, id, params.UserID)
	if err != nil {
		if errors.Is(err, database.ErrHistoryNotFound) {
			WriteError(w, CodedErrorf(http.StatusNotFound, msgHistoryNotFound))
			return
		}
		WriteError(w, DetailedError(http.StatusInternalServerError, msgFetchFailed, err))
		return
	}

	if h.ResponseType != database.ResponseImage {
		WriteError(w, CodedErrorf(http.StatusNotFound, "history item %d is not an image", id))
		return
	}

	if s.archive != nil {
		img, err := s.archive.Load(ctx, h.UserID, h.ID)
		if err == nil {
			writePNG(w, img)
			return
		}
		slog.Warn("archived image unavailable, serving from history", "history_id", h.ID, "error", err)
	}

	img, err := base64.StdEncoding.DecodeString(h.Response)
	if err != nil {
		WriteError(w, DetailedError(http.StatusInternalServerError, msgFetchFailed, err))
		return
	}

	writePNG(w, img)
}
