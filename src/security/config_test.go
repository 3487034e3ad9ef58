package security

import "testing"

func TestResolveWebhookTokenHashFallsBackToPlaintext(t *testing.T) {
	cfg := Config{WebhookToken: "changeme"}

	hash, err := cfg.ResolveWebhookTokenHash()
	if err != nil {
		t.Fatalf("unexpected error deriving hash: %v", err)
	}
	if !VerifyToken(hash, "changeme") {
		t.Fatalf("derived hash must verify the fallback token")
	}
	if VerifyToken(hash, "other") {
		t.Fatalf("derived hash must reject other tokens")
	}
}

func TestResolveWebhookTokenHashPrefersExplicitHash(t *testing.T) {
	explicit, err := HashToken("deployed-secret")
	if err != nil {
		t.Fatalf("unexpected hashing error: %v", err)
	}

	cfg := Config{WebhookTokenHash: explicit, WebhookToken: "changeme"}

	hash, err := cfg.ResolveWebhookTokenHash()
	if err != nil {
		t.Fatalf("unexpected error resolving hash: %v", err)
	}
	if hash != explicit {
		t.Fatalf("expected the configured hash to be returned verbatim")
	}
	if VerifyToken(hash, "changeme") {
		t.Fatalf("fallback token must be ignored when a hash is configured")
	}
}
