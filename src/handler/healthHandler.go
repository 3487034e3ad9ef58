package handler

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"signalengine/src/auth"
	"signalengine/src/model"
)

type healthReporter interface {
	Snapshot(ctx context.Context) (*model.HealthSnapshot, error)
	Status(ctx context.Context) (*model.WebhookStatus, error)
}

type processingToggle interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// WebhookStatusHandler returns aggregate counters plus gate states.
func WebhookStatusHandler(monitor healthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := monitor.Status(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to read webhook status")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// WebhookHealthHandler returns the rolling-window health report.
func WebhookHealthHandler(monitor healthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := monitor.Snapshot(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to build health snapshot")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// PauseProcessingHandler flips the manual ingestion gate on.
func PauseProcessingHandler(toggle processingToggle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := toggle.Pause(r.Context()); err != nil {
			logger.WithError(err).Error("failed to pause processing")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		logToggle(r, true)
		writeJSON(w, http.StatusOK, map[string]bool{"is_paused": true})
	}
}

// ResumeProcessingHandler flips the manual ingestion gate off.
func ResumeProcessingHandler(toggle processingToggle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := toggle.Resume(r.Context()); err != nil {
			logger.WithError(err).Error("failed to resume processing")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		logToggle(r, false)
		writeJSON(w, http.StatusOK, map[string]bool{"is_paused": false})
	}
}

func logToggle(r *http.Request, paused bool) {
	actor := "unknown"
	if user, ok := auth.GetUserFromContext(r.Context()); ok {
		actor = user.Username
	}
	logger.WithFields(logger.Fields{
		"paused": paused,
		"actor":  actor,
	}).Warn("processing toggled by operator")
}
