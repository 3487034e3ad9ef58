package notify

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// AlertWebhookURL receives operational events (breaker trips, pause
	// toggles). Empty disables outbound notifications.
	AlertWebhookURL string        `envconfig:"ALERT_WEBHOOK_URL" default:""`
	Timeout         time.Duration `envconfig:"ALERT_WEBHOOK_TIMEOUT" default:"5s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
