package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"signalengine/src/health"
	"signalengine/src/model"
)

type signalProcessor interface {
	Process(ctx context.Context, payload *model.AlertPayload) *model.WebhookResponse
}

type payloadValidator interface {
	Validate(ctx context.Context, payload *model.AlertPayload) (*model.Signal, error)
}

// IngestWebhookHandler is the hot path: it decodes the alert body, runs
// the pipeline, and maps the outcome to a status code. Processed and
// duplicate both answer 200 so the alert source never retries them;
// rejections answer 422 with the reason.
func IngestWebhookHandler(proc signalProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.AlertPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.WithError(err).Warn("undecodable webhook body")
			writeJSON(w, http.StatusBadRequest, model.WebhookResponse{
				Status: model.WebhookOutcomeRejected,
				Error:  "invalid JSON body",
			})
			return
		}

		resp := proc.Process(r.Context(), &payload)

		health.ObserveRequest(resp.Status, time.Duration(resp.ProcessingTimeMs)*time.Millisecond)

		code := http.StatusOK
		if resp.Status == model.WebhookOutcomeRejected {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, resp)
	}
}

// ValidatePayloadHandler dry-runs validation without touching positions,
// the dedup window, or the webhook log. Used to verify alert templates
// before pointing them at the live endpoint.
func ValidatePayloadHandler(validator payloadValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.AlertPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"valid": false,
				"error": "invalid JSON body",
			})
			return
		}

		sig, err := validator.Validate(r.Context(), &payload)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"valid": false,
				"error": err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"valid": true,
			"signal": map[string]any{
				"strategy_symbol": sig.StrategySymbol,
				"kind":            sig.Kind,
				"direction":       sig.Direction,
				"price":           sig.Price,
				"quantity":        sig.Quantity,
			},
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
