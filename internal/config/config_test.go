package config

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedServiceRole(t *testing.T, ref, role string) string {
	t.Helper()
	claims := serviceRoleClaims{
		Ref:  ref,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("irrelevant-for-unverified-decode"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestValidateServiceRoleAccepts(t *testing.T) {
	key := signedServiceRole(t, "abcxyz123", "service_role")
	if err := validateServiceRole("https://abcxyz123.supabase.co", key); err != nil {
		t.Fatalf("expected valid key, got error: %v", err)
	}
}

func TestValidateServiceRoleRejectsWrongProject(t *testing.T) {
	key := signedServiceRole(t, "other-project", "service_role")
	if err := validateServiceRole("https://abcxyz123.supabase.co", key); err == nil {
		t.Fatal("expected error for mismatched project ref")
	}
}

func TestValidateServiceRoleRejectsWrongRole(t *testing.T) {
	key := signedServiceRole(t, "abcxyz123", "anon")
	if err := validateServiceRole("https://abcxyz123.supabase.co", key); err == nil {
		t.Fatal("expected error for non-service_role key")
	}
}

func TestGetBoolEnvFallback(t *testing.T) {
	if !getBoolEnv("RECEPTOR_TEST_UNSET_BOOL", true) {
		t.Fatal("expected fallback true for unset var")
	}
}
