package handler

import (
	"context"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"signalengine/src/auth"
	"signalengine/src/model"
	"signalengine/src/repository"
)

type webhookLogReader interface {
	Query(ctx context.Context, options repository.WebhookLogQueryOptions) ([]model.WebhookLogEntry, error)
}

type webhookLogClearer interface {
	Clear(ctx context.Context) (int64, error)
}

// windowResetter clears rolling statistics derived from the webhook log.
type windowResetter interface {
	Reset()
}

// QueryWebhookLogsHandler lists log entries newest first with optional
// status and search filters.
func QueryWebhookLogsHandler(repo webhookLogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := repository.WebhookLogQueryOptions{
			Search: r.URL.Query().Get("search"),
		}

		if statusParam := r.URL.Query().Get("status"); statusParam != "" {
			switch statusParam {
			case model.WebhookStatusSuccess, model.WebhookStatusFailed, model.WebhookStatusDuplicate:
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

		entries, err := repo.Query(r.Context(), options)
		if err != nil {
			logger.WithError(err).Error("failed to query webhook logs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, entries)
	}
}

// ClearWebhookLogsHandler wipes the log and resets the breaker window,
// since its statistics are derived from the cleared entries.
func ClearWebhookLogsHandler(repo webhookLogClearer, breaker windowResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := repo.Clear(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to clear webhook logs")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if breaker != nil {
			breaker.Reset()
		}

		if user, ok := auth.GetUserFromContext(r.Context()); ok {
			logger.WithFields(logger.Fields{
				"deleted": deleted,
				"actor":   user.Username,
			}).Warn("webhook log cleared by operator")
		}

		writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
	}
}
