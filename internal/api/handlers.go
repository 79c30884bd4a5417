package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"absensi/internal/apperr"
	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/policy"
)

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// GET /config
func configHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only return non-sensitive config fields
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"subpath": cfg.Server.Subpath,
			},
			"store": gin.H{
				"driver":          cfg.Store.Driver,
				"usersSheet":      cfg.Sheets.UsersSheet,
				"attendanceSheet": cfg.Sheets.AttendanceSheet,
			},
			"roles": policy.Roles,
		})
	}
}

// caller returns the identity set by the auth middleware. Routes that use it
// are always behind that middleware.
func caller(c *gin.Context) (policy.Identity, bool) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		respondError(c, apperr.ErrUnauthenticated)
	}
	return id, ok
}

func badBody(c *gin.Context) {
	respondError(c, apperr.Validation("invalid request body", nil))
}

func ok(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}
