package security

import "testing"

func TestHashAndVerifyToken(t *testing.T) {
	hash, err := HashToken("webhook-secret")
	if err != nil {
		t.Fatalf("unexpected hashing error: %v", err)
	}

	if !VerifyToken(hash, "webhook-secret") {
		t.Fatalf("expected token to verify against its own hash")
	}
	if VerifyToken(hash, "other-secret") {
		t.Fatalf("expected wrong token to fail verification")
	}
	if VerifyToken("not-a-hash", "webhook-secret") {
		t.Fatalf("expected malformed hash to fail verification")
	}
}
