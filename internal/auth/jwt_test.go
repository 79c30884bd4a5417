package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"absensi/internal/apperr"
	"absensi/internal/policy"
)

const testSecret = "my_test_jwt_secret"

func TestGenerateAndParseJWT(t *testing.T) {
	id := policy.Identity{Username: "siswa1", Role: policy.RoleStudent, Class: "X IPA 1"}

	tokenString, err := GenerateJWT(testSecret, id, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if tokenString == "" {
		t.Fatalf("empty token string")
	}

	claims, err := ParseJWT(testSecret, tokenString)
	if err != nil {
		t.Fatalf("failed to parse JWT: %v", err)
	}
	if claims.Identity() != id {
		t.Errorf("expected identity %+v, got %+v", id, claims.Identity())
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		t.Errorf("token should not be expired, got expiresAt=%v", claims.ExpiresAt)
	}
}

func TestParseJWT_InvalidToken(t *testing.T) {
	_, err := ParseJWT(testSecret, "this.is.not.a.valid.jwt")
	if err == nil {
		t.Errorf("expected error for invalid JWT, got nil")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, policy.Identity{Username: "guru1", Role: policy.RoleTeacher}, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if _, err := ParseJWT("totally_wrong_secret", tokenString); err == nil {
		t.Errorf("expected error for wrong secret, got nil")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	tokenString, err := GenerateJWT(testSecret, policy.Identity{Username: "guru1", Role: policy.RoleTeacher}, -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate JWT: %v", err)
	}
	if _, err := ParseJWT(testSecret, tokenString); err == nil {
		t.Errorf("expected error for expired JWT")
	}
}

func TestParseJWT_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Username: "guru1",
		Role:     string(policy.RoleTeacher),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(testSecret, tokenString); err == nil {
		t.Errorf("expected HS512 token to be rejected")
	}
}

func TestTokenService_IssueVerify(t *testing.T) {
	svc := NewTokenService(testSecret, 24*time.Hour)
	id := policy.Identity{Username: "guru1", Role: policy.RoleTeacher}
	token, err := svc.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != id {
		t.Errorf("expected %+v, got %+v", id, got)
	}

	claims, _ := ParseJWT(testSecret, token)
	ttl := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	if ttl != 24*time.Hour {
		t.Errorf("expected 24h lifetime, got %v", ttl)
	}
}

func TestTokenService_VerifyFailureIsUnauthenticated(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	_, err := svc.Verify("garbage")
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
}
