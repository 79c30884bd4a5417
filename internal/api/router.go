package api

import (
	"github.com/gin-gonic/gin"

	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/metrics"
	"absensi/internal/ratelimit"
	"absensi/internal/user"
)

// Deps are the services the routes call. Limiter and Metrics may be nil.
type Deps struct {
	Tokens     *auth.TokenService
	Users      *user.Repository
	Attendance *attendance.Repository
	Limiter    ratelimit.Limiter
	Metrics    *metrics.Metrics
}

func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), corsMiddleware(cfg.Server.AllowedOrigins))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	subpath := cfg.Server.Subpath // e.g. "/api", always starts with '/'

	limit := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = ratelimit.Middleware(d.Limiter, d.Metrics)
	}

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))
		if d.Metrics != nil {
			group.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
		}

		// Auth
		group.POST("/auth/login", limit, LoginHandler(d.Users))
		group.POST("/auth/verify", limit, VerifyHandler(d.Tokens))

		protected := group.Group("", auth.AuthMiddleware(d.Tokens), limit)

		// Attendance
		protected.GET("/attendance", ListAttendanceHandler(d.Attendance))
		protected.GET("/attendance/:position", GetAttendanceHandler(d.Attendance))
		protected.POST("/attendance", CreateAttendanceHandler(d.Attendance))
		protected.PUT("/attendance/:position", UpdateAttendanceHandler(d.Attendance))
		protected.DELETE("/attendance/:position", DeleteAttendanceHandler(d.Attendance))
		protected.GET("/classes", ListClassesHandler(d.Attendance))

		// Users (teacher only, enforced by the repository)
		protected.GET("/users", ListUsersHandler(d.Users))
		protected.POST("/users", CreateUserHandler(d.Users))
	}
	return r
}
