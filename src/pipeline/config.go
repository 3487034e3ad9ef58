package pipeline

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ReplayWindow is how long an identical fingerprint keeps counting as a
	// duplicate. Matches the "Duplicate Detection" setting in the UI.
	ReplayWindow time.Duration `envconfig:"REPLAY_WINDOW" default:"24h"`
	// ReplayMaxAge rejects alerts whose declared timestamp is older than
	// this, even when the fingerprint is novel.
	ReplayMaxAge time.Duration `envconfig:"REPLAY_MAX_AGE" default:"5m"`
	// FingerprintGranularity rounds the client timestamp before it enters
	// the duplicate fingerprint.
	FingerprintGranularity time.Duration `envconfig:"FINGERPRINT_GRANULARITY" default:"1m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
