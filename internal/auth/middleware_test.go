package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"absensi/internal/policy"
)

func setupRouter(tokens *TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(tokens))
	r.GET("/test", func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.String(500, "no identity")
			return
		}
		c.String(200, id.Username+"|"+string(id.Role)+"|"+id.Class)
	})
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := setupRouter(NewTokenService("secret", time.Minute))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unauthenticated") {
		t.Errorf("expected error kind in body, got %s", w.Body.String())
	}
}

func TestAuthMiddleware_NotBearer(t *testing.T) {
	r := setupRouter(NewTokenService("secret", time.Minute))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-bearer scheme, got %d", w.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	r := setupRouter(NewTokenService("secret", time.Minute))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer not.a.valid.jwt")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid JWT, got %d", w.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := NewTokenService("secret", -time.Minute)
	token, _ := expired.Issue(policy.Identity{Username: "guru1", Role: policy.RoleTeacher})
	r := setupRouter(NewTokenService("secret", time.Minute))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired JWT, got %d", w.Code)
	}
}

func TestAuthMiddleware_AttachesIdentity(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute)
	token, err := tokens.Issue(policy.Identity{Username: "sekre1", Role: policy.RoleSecretary, Class: "X IPA 2"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	r := setupRouter(tokens)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "sekre1|sekertaris|X IPA 2" {
		t.Errorf("unexpected identity: %s", w.Body.String())
	}
}
