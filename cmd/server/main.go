package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"absensi/internal/api"
	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/config"
	"absensi/internal/metrics"
	"absensi/internal/ratelimit"
	redisdb "absensi/internal/redis"
	"absensi/internal/store"
	"absensi/internal/user"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.json", "path to the JSON config file (empty for environment only)")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	s, err := store.Open(ctx, cfg, m)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	usersTable, attendanceTable := store.Tables(cfg)
	tokens := auth.NewTokenService(cfg.Server.JWTSecret, cfg.TokenTTL())

	deps := api.Deps{
		Tokens:     tokens,
		Users:      user.NewRepository(s, usersTable, tokens, cfg.Auth.PasswordMode),
		Attendance: attendance.NewRepository(s, attendanceTable),
		Metrics:    m,
	}
	if cfg.Auth.PasswordMode == config.PasswordBcrypt {
		log.Printf("[Main] bcrypt password mode: stored passwords must be bcrypt hashes")
	}

	if cfg.RateLimit.Enabled {
		limiter, closeLimiter, err := newLimiter(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeLimiter()
		deps.Limiter = limiter
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.SetupRouter(cfg, deps),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Main] starting server on %s%s (store: %s)", srv.Addr, cfg.Server.Subpath, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Printf("[Main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLimiter uses Redis when configured so limits hold across instances,
// and an in-process limiter otherwise.
func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	limit, window := cfg.RateLimit.MaxRequests, cfg.RateWindow()
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[Main] rate limit %d req/%s via redis", limit, window)
		return ratelimit.NewRedis(rdb, limit, window), func() { _ = rdb.Close() }, nil
	}
	mem := ratelimit.NewMemory(limit, window, cfg.RateLimit.MaxKeys)
	go mem.Run(ctx)
	log.Printf("[Main] rate limit %d req/%s in memory (max %d keys)", limit, window, cfg.RateLimit.MaxKeys)
	return mem, func() {}, nil
}
