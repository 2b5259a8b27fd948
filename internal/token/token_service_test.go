package token

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tok, err := svc.Generate("tom@x.com", "AB12CDE")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token")
	}

	claims, err := svc.Validate(tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Email != "tom@x.com" || claims.Plate != "AB12CDE" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Errorf("expiry = %v", claims.ExpiresAt)
	}
}

func TestGenerateRequiresIdentity(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	if _, err := svc.Generate("", "AB12CDE"); err == nil {
		t.Error("empty email accepted")
	}
	if _, err := svc.Generate("tom@x.com", ""); err == nil {
		t.Error("empty plate accepted")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	tok, err := NewService("secret-a", time.Hour).Generate("tom@x.com", "AB12CDE")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := NewService("secret-b", time.Hour).Validate(tok); err == nil {
		t.Error("token signed with different secret accepted")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", time.Nanosecond)
	tok, err := svc.Generate("tom@x.com", "AB12CDE")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := svc.Validate(tok); err == nil {
		t.Error("expired token accepted")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	if _, err := svc.Validate("not.a.jwt"); err == nil {
		t.Error("garbage token accepted")
	}
}
