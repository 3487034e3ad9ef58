package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"signalengine/src/auth"
	"signalengine/src/model"
	"signalengine/src/repository"
)

type strategyFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Strategy, error)
}

type bulkImporter interface {
	BulkImport(ctx context.Context, strategy *model.Strategy, rows []model.BulkTrade, overwrite bool) (int64, int64, error)
}

// BulkUploadTradesHandler imports a batch of historical trades directly
// into the production ledger, bypassing staging. With overwrite set the
// strategy's existing production history is replaced.
func BulkUploadTradesHandler(strategies strategyFinder, trades bulkImporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.BulkTradeUpload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid bulk upload payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if payload.StrategyID == 0 {
			http.Error(w, "strategy_id is required", http.StatusBadRequest)
			return
		}
		if len(payload.Trades) == 0 && !payload.Overwrite {
			http.Error(w, "trades list is empty", http.StatusBadRequest)
			return
		}

		for i, row := range payload.Trades {
			if row.Direction != model.DirectionLong && row.Direction != model.DirectionShort {
				http.Error(w, "invalid direction in row "+strconv.Itoa(i), http.StatusBadRequest)
				return
			}
			if row.EntryPrice <= 0 || row.ExitPrice <= 0 || row.Quantity <= 0 {
				http.Error(w, "non-positive price or quantity in row "+strconv.Itoa(i), http.StatusBadRequest)
				return
			}
			if row.ExitTime.Before(row.EntryTime) {
				http.Error(w, "exit before entry in row "+strconv.Itoa(i), http.StatusBadRequest)
				return
			}
		}

		strategy, err := strategies.FindByID(r.Context(), payload.StrategyID)
		if err != nil {
			logger.WithError(err).Error("failed to load strategy for bulk upload")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if strategy == nil {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}

		deleted, inserted, err := trades.BulkImport(r.Context(), strategy, payload.Trades, payload.Overwrite)
		if err != nil {
			logger.WithError(err).WithField("strategy", strategy.Symbol).Error("bulk import failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if user, ok := auth.GetUserFromContext(r.Context()); ok {
			logger.WithFields(logger.Fields{
				"strategy":  strategy.Symbol,
				"deleted":   deleted,
				"inserted":  inserted,
				"overwrite": payload.Overwrite,
				"actor":     user.Username,
			}).Info("bulk trade upload completed by operator")
		}

		writeJSON(w, http.StatusOK, map[string]int64{
			"deleted":  deleted,
			"inserted": inserted,
		})
	}
}

// DefaultBulkUploadTradesHandler wires the handler to the production
// repository implementations.
func DefaultBulkUploadTradesHandler() http.HandlerFunc {
	return BulkUploadTradesHandler(repository.NewStrategyRepository(), repository.NewTradeRepository())
}
