package health

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// BreakerWindow is how many recent request outcomes the breaker keeps.
	BreakerWindow int `envconfig:"BREAKER_WINDOW" default:"50"`
	// BreakerThreshold is the failure rate at which the breaker opens.
	BreakerThreshold float64 `envconfig:"BREAKER_THRESHOLD" default:"0.5"`
	// BreakerMinSamples prevents a cold window from tripping on one failure.
	BreakerMinSamples int `envconfig:"BREAKER_MIN_SAMPLES" default:"10"`
	// BreakerSampleTTL ages outcomes out of the window so an open breaker
	// closes again once the failures behind it are stale.
	BreakerSampleTTL time.Duration `envconfig:"BREAKER_SAMPLE_TTL" default:"10m"`

	// HealthWindow bounds how many recent log entries the monitor reads.
	HealthWindow int `envconfig:"HEALTH_WINDOW" default:"100"`
	// InactivityThreshold flags a quiet feed in the issues list.
	InactivityThreshold time.Duration `envconfig:"INACTIVITY_THRESHOLD" default:"60m"`
	// ErrorRateWarning flags elevated failure rates in the issues list.
	ErrorRateWarning float64 `envconfig:"ERROR_RATE_WARNING" default:"0.1"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
