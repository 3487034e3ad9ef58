package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// WebhookTokenHash is the bcrypt hash every inbound alert token is
	// compared against. Produce one with the hash_token CLI command. When
	// unset, WebhookToken is hashed at startup instead.
	WebhookTokenHash string `envconfig:"WEBHOOK_TOKEN_HASH" default:""`
	// WebhookToken is the plaintext fallback for local development and must
	// be overridden in any real deployment. Ignored whenever
	// WebhookTokenHash is set.
	WebhookToken  string `envconfig:"WEBHOOK_TOKEN" default:"changeme"`
	AdminAPIToken string `envconfig:"ADMIN_API_TOKEN" default:""`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"operator"`
}

// ResolveWebhookTokenHash returns the configured hash, deriving one from the
// plaintext fallback when no hash is set.
func (c Config) ResolveWebhookTokenHash() (string, error) {
	if c.WebhookTokenHash != "" {
		return c.WebhookTokenHash, nil
	}
	return HashToken(c.WebhookToken)
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
