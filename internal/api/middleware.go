package api

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("requestId", reqID)
		c.Header(requestIDHeader, reqID)

		c.Next()

		log.Printf("[HTTP] %s %s %d %s ip=%s req=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Microsecond), c.ClientIP(), reqID)
	}
}

// corsMiddleware allows the configured origins. Entries may contain a
// wildcard, such as https://*.vercel.app. An empty list or "*" allows any
// origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			allowAll = true
		}
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowWildcard = true
		corsConfig.AllowCredentials = true
	}
	return cors.New(corsConfig)
}
