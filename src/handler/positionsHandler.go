package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"signalengine/src/auth"
	"signalengine/src/model"
	"signalengine/src/pipeline"
	"signalengine/src/repository"
)

type positionStore interface {
	ListOpen(ctx context.Context, symbol *string) ([]model.Position, error)
	FindByID(ctx context.Context, id uint) (*model.Position, error)
	ClosePosition(ctx context.Context, position *model.Position, exitPrice, pnl float64, exitTime time.Time) error
}

// ListOpenPositionsHandler returns open positions, optionally filtered by
// strategy symbol.
func ListOpenPositionsHandler(repo positionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var symbol *string
		if symbolParam := r.URL.Query().Get("symbol"); symbolParam != "" {
			symbol = &symbolParam
		}

		positions, err := repo.ListOpen(r.Context(), symbol)
		if err != nil {
			logger.WithError(err).Error("failed to list open positions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, positions)
	}
}

type closePositionPayload struct {
	ExitPrice float64    `json:"exit_price"`
	ExitTime  *time.Time `json:"exit_time,omitempty"`
}

// ClosePositionHandler force-closes a position at an operator-supplied
// price, covering the missed-exit-alert case. The resulting trade still
// lands in staging for review like any matched close.
func ClosePositionHandler(repo positionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var payload closePositionPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid close position payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if payload.ExitPrice <= 0 {
			http.Error(w, "exit_price must be positive", http.StatusBadRequest)
			return
		}

		position, err := repo.FindByID(r.Context(), uint(id))
		if err != nil {
			logger.WithError(err).Error("failed to load position")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if position == nil {
			http.Error(w, "position not found", http.StatusNotFound)
			return
		}
		if position.Status != model.PositionStatusOpen {
			http.Error(w, "position is not open", http.StatusConflict)
			return
		}

		exitTime := time.Now()
		if payload.ExitTime != nil {
			exitTime = *payload.ExitTime
		}
		pnl := pipeline.ComputePnl(position.Direction, position.EntryPrice, payload.ExitPrice, position.Quantity)

		if err := repo.ClosePosition(r.Context(), position, payload.ExitPrice, pnl, exitTime); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				http.Error(w, "position changed concurrently, reload and retry", http.StatusConflict)
				return
			}
			logger.WithError(err).WithField("position_id", id).Error("failed to close position")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if user, ok := auth.GetUserFromContext(r.Context()); ok {
			logger.WithFields(logger.Fields{
				"position_id": id,
				"exit_price":  payload.ExitPrice,
				"pnl":         pnl,
				"actor":       user.Username,
			}).Info("position closed manually")
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"position_id": position.ID,
			"exit_price":  payload.ExitPrice,
			"pnl":         pnl,
		})
	}
}

// DefaultPositionHandlers wires the position handlers to the production
// repository implementation.
func DefaultPositionHandlers() (list, closePos http.HandlerFunc) {
	repo := repository.NewPositionRepository()
	return ListOpenPositionsHandler(repo), ClosePositionHandler(repo)
}
