package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", TenantID: "t1", RoleName: RoleAccountant}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.TenantID != claims.TenantID || parsed.RoleName != claims.RoleName {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
	if parsed.Subject != "u1" {
		t.Fatalf("expected subject u1, got %q", parsed.Subject)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{UserID: "u1", TenantID: "t1"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", TenantID: "t1"}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "u1", TenantID: "t1"})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken("secret", signed); err == nil {
		t.Fatal("expected signing method error")
	}
}

func TestParseTokenRequiresTenant(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestStaticPermissions(t *testing.T) {
	perms := StaticPermissions{}
	cases := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleAdmin, PermBudgetWrite, true},
		{"Accountant", PermBudgetWrite, true},
		{RoleViewer, PermBudgetRead, true},
		{RoleViewer, PermBudgetWrite, false},
		{RoleProducer, PermAuditRead, false},
		{RoleAdmin, PermAuditRead, true},
		{"stranger", PermBudgetRead, false},
		{"", PermBudgetRead, false},
	}
	for _, tc := range cases {
		got, err := perms.HasPermission(context.Background(), tc.role, tc.permission)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("role %q permission %q: expected %v, got %v", tc.role, tc.permission, tc.want, got)
		}
	}
}
