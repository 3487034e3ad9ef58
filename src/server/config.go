package server

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"9898"`

	// Per-IP rate limit on the ingest endpoint.
	IngestRateLimit float64 `envconfig:"INGEST_RATE_LIMIT" default:"10"`
	IngestRateBurst int     `envconfig:"INGEST_RATE_BURST" default:"20"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
