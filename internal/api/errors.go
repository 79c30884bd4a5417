package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindInvalidPosition:    http.StatusBadRequest,
	apperr.KindForbidden:          http.StatusForbidden,
	apperr.KindUnauthenticated:    http.StatusUnauthorized,
	apperr.KindInvalidCredentials: http.StatusUnauthorized,
	apperr.KindStoreUnavailable:   http.StatusServiceUnavailable,
	apperr.KindRateLimited:        http.StatusTooManyRequests,
}

func statusOf(kind apperr.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": {"kind", "message", "fields"}}.
// Causes stay in the server log; callers only see the kind's message.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Printf("[API] %s %s: internal error: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"kind":    apperr.KindInternal,
			"message": "internal server error",
		}})
		return
	}
	body := gin.H{"kind": appErr.Kind, "message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.JSON(statusOf(appErr.Kind), gin.H{"error": body})
}
