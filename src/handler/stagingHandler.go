package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"signalengine/src/auth"
	"signalengine/src/model"
	"signalengine/src/repository"
)

type stagingReviewer interface {
	List(ctx context.Context, options repository.StagingTradeListOptions) ([]model.StagingTrade, error)
	Stats(ctx context.Context) (*model.StagingStats, error)
	Approve(ctx context.Context, id uint) (*model.Trade, error)
	Reject(ctx context.Context, id uint) error
	Edit(ctx context.Context, id uint, update model.StagingTradeUpdate, notes string) error
	Delete(ctx context.Context, id uint) error
}

// ListStagingTradesHandler returns the review queue, optionally filtered
// by status. Open trades are always included.
func ListStagingTradesHandler(repo stagingReviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := repository.StagingTradeListOptions{}

		if statusParam := r.URL.Query().Get("status"); statusParam != "" {
			switch statusParam {
			case model.StagingStatusPending, model.StagingStatusEdited,
				model.StagingStatusApproved, model.StagingStatusRejected:
				options.Status = &statusParam
			default:
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
		}
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err := strconv.Atoi(limitParam)
			if err != nil || limit <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			options.Limit = limit
		}
		if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
			offset, err := strconv.Atoi(offsetParam)
			if err != nil || offset < 0 {
				http.Error(w, "invalid offset", http.StatusBadRequest)
				return
			}
			options.Offset = offset
		}

		trades, err := repo.List(r.Context(), options)
		if err != nil {
			logger.WithError(err).Error("failed to list staging trades")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, trades)
	}
}

// StagingStatsHandler returns queue counts for the dashboard.
func StagingStatsHandler(repo stagingReviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.Stats(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to read staging stats")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// ApproveStagingTradeHandler promotes a closed staging trade into the
// production trade store.
func ApproveStagingTradeHandler(repo stagingReviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := stagingID(w, r)
		if !ok {
			return
		}

		trade, err := repo.Approve(r.Context(), id)
		if err != nil {
			writeStagingError(w, id, "approve", err)
			return
		}

		if user, ok := auth.GetUserFromContext(r.Context()); ok {
			logger.WithFields(logger.Fields{
				"staging_id": id,
				"trade_id":   trade.ID,
				"actor":      user.Username,
			}).Info("staging trade approved by operator")
		}

		writeJSON(w, http.StatusOK, trade)
	}
}

// RejectStagingTradeHandler marks a staging trade rejected.
func RejectStagingTradeHandler(repo stagingReviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := stagingID(w, r)
		if !ok {
			return
		}

		if err := repo.Reject(r.Context(), id); err != nil {
			writeStagingError(w, id, "reject", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": model.StagingStatusRejected})
	}
}

type editStagingPayload struct {
	model.StagingTradeUpdate
	Notes string `json:"notes,omitempty"`
}

// EditStagingTradeHandler applies field overrides before approval. The
// row stays reviewable afterwards.
func EditStagingTradeHandler(repo stagingReviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := stagingID(w, r)
		if !ok {
			return
		}

		var payload editStagingPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid staging edit payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.Direction != nil &&
			*payload.Direction != model.DirectionLong && *payload.Direction != model.DirectionShort {
			http.Error(w, "invalid direction", http.StatusBadRequest)
			return
		}

		if err := repo.Edit(r.Context(), id, payload.StagingTradeUpdate, payload.Notes); err != nil {
			writeStagingError(w, id, "edit", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": model.StagingStatusEdited})
	}
}

// DeleteStagingTradeHandler hard-deletes a rejected trade.
func DeleteStagingTradeHandler(repo stagingReviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := stagingID(w, r)
		if !ok {
			return
		}

		if err := repo.Delete(r.Context(), id); err != nil {
			writeStagingError(w, id, "delete", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func stagingID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// writeStagingError maps repository sentinels onto HTTP codes shared by
// all review actions.
func writeStagingError(w http.ResponseWriter, id uint, action string, err error) {
	switch {
	case errors.Is(err, repository.ErrStagingTradeNotFound):
		http.Error(w, "staging trade not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrTradeStillOpen):
		http.Error(w, "staging trade is still open", http.StatusConflict)
	case errors.Is(err, repository.ErrDeleteNotAllowed):
		http.Error(w, "only rejected staging trades can be deleted", http.StatusConflict)
	case errors.Is(err, repository.ErrStaleState):
		http.Error(w, "staging trade changed concurrently, reload and retry", http.StatusConflict)
	default:
		logger.WithError(err).WithFields(logger.Fields{
			"staging_id": id,
			"action":     action,
		}).Error("staging review action failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// DefaultStagingHandlers wires the review handlers to the production
// repository implementation.
func DefaultStagingHandlers() (list, stats, approve, reject, edit, remove http.HandlerFunc) {
	repo := repository.NewStagingTradeRepository()
	return ListStagingTradesHandler(repo),
		StagingStatsHandler(repo),
		ApproveStagingTradeHandler(repo),
		RejectStagingTradeHandler(repo),
		EditStagingTradeHandler(repo),
		DeleteStagingTradeHandler(repo)
}
