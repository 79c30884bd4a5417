package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/auth"
	"absensi/internal/user"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /auth/login
func LoginHandler(users *user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badBody(c)
			return
		}
		session, err := users.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// POST /auth/verify
func VerifyHandler(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := tokens.Verify(auth.BearerToken(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "invalid or expired token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "identity": id})
	}
}

// GET /users
func ListUsersHandler(users *user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		accounts, err := users.List(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": accounts})
	}
}

// POST /users
func CreateUserHandler(users *user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		var candidate user.Candidate
		if err := c.ShouldBindJSON(&candidate); err != nil {
			badBody(c)
			return
		}
		if err := users.Create(c.Request.Context(), id, candidate); err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusCreated, "User created")
	}
}
