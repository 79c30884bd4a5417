package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"absensi/internal/apperr"
	"absensi/internal/policy"
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Class    string `json:"class,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() policy.Identity {
	return policy.Identity{Username: c.Username, Role: policy.Role(c.Role), Class: c.Class}
}

func GenerateJWT(secret string, id policy.Identity, duration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: id.Username,
		Role:     string(id.Role),
		Class:    id.Class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// TokenService issues and verifies signed, expiring credentials.
type TokenService struct {
	secret string
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

func (s *TokenService) Issue(id policy.Identity) (string, error) {
	token, err := GenerateJWT(s.secret, id, s.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify returns the identity carried by token. Every failure, including
// expiry, is reported as unauthenticated.
func (s *TokenService) Verify(token string) (policy.Identity, error) {
	claims, err := ParseJWT(s.secret, token)
	if err != nil {
		return policy.Identity{}, &apperr.Error{
			Kind:    apperr.KindUnauthenticated,
			Message: "invalid or expired token",
			Err:     err,
		}
	}
	if claims.Username == "" {
		return policy.Identity{}, apperr.ErrUnauthenticated
	}
	return claims.Identity(), nil
}
