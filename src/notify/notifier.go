package notify

import (
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

// Notifier posts operational events to an external alert webhook. Sends
// are fire-and-forget so an unreachable alert endpoint never slows the
// ingestion path.
type Notifier struct {
	client *resty.Client
	url    string
}

func NewNotifier(cfg Config) *Notifier {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2)

	return &Notifier{
		client: client,
		url:    cfg.AlertWebhookURL,
	}
}

// Notify sends one event asynchronously. A disabled notifier (empty URL)
// is a no-op.
func (n *Notifier) Notify(event string, details map[string]any) {
	if n.url == "" {
		return
	}

	body := map[string]any{
		"event":     event,
		"details":   details,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	go func() {
		resp, err := n.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(n.url)
		if err != nil {
			logger.WithError(err).WithField("event", event).Warn("alert notification failed")
			return
		}
		if resp.IsError() {
			logger.WithFields(logger.Fields{
				"event":  event,
				"status": resp.StatusCode(),
			}).Warn("alert endpoint returned error")
		}
	}()
}

// CircuitStateChanged is wired as the breaker's state change callback.
func (n *Notifier) CircuitStateChanged(open bool, failureRate float64) {
	event := "circuit_closed"
	if open {
		event = "circuit_opened"
	}
	n.Notify(event, map[string]any{"failure_rate": failureRate})
}

// ProcessingToggled reports manual pause switch flips.
func (n *Notifier) ProcessingToggled(paused bool, actor string) {
	event := "processing_resumed"
	if paused {
		event = "processing_paused"
	}
	n.Notify(event, map[string]any{"actor": actor})
}
