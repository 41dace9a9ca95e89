package utils

import (
	"testing"
	"time"
)

func TestJwtEditGrantRoundTrip(t *testing.T) {
	token, err := JwtGenerateEditGrant("user_abc123", "inv_def456")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserId != "user_abc123" {
		t.Errorf("sub = %q, want user_abc123", claims.UserId)
	}
	if claims.EditInvoice != "inv_def456" {
		t.Errorf("edit_invoice = %q, want inv_def456", claims.EditInvoice)
	}
	if claims.Scope != EditGrantScope {
		t.Errorf("scope = %q, want %q", claims.Scope, EditGrantScope)
	}
}

func TestJwtEditGrantExpiresInOneHour(t *testing.T) {
	token, err := JwtGenerateEditGrant("user_abc123", "inv_def456")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	lifespan := time.Unix(claims.ExpiresAt, 0).Sub(time.Unix(claims.IssuedAt, 0))
	if lifespan != EditGrantLifespan {
		t.Errorf("lifespan = %s, want %s", lifespan, EditGrantLifespan)
	}
}

func TestJwtValidateRejectsGarbage(t *testing.T) {
	if _, err := JwtValidate("not.a.token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
