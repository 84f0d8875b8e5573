package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/config"
	"campusattend/internal/events"
	"campusattend/internal/handler"
	"campusattend/internal/httpmiddleware"
	"campusattend/internal/logging"
	"campusattend/internal/metrics"
	"campusattend/internal/staff"
	"campusattend/internal/store"
	"campusattend/internal/students"
	"campusattend/internal/users"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Production(), os.Stdout)
	slog.SetDefault(logger)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := store.NewDB(startCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.MigrateOnStart {
		if err := store.Migrate(startCtx, db.Client); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	tokens := auth.NewIssuer(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	var cache events.Cache = events.NopCache{}
	if redisClient.Enabled() {
		cache = events.NewRedisCache(redisClient.Client, cfg.UpcomingCacheTTL)
	}

	studentRepo := students.NewRepository(db.Client)
	staffSvc := staff.NewService(staff.NewRepository(db.Client), tokens)
	eventSvc := events.NewService(events.NewRepository(db.Client), staffSvc, cache, cfg.Location())
	attSvc := attendance.NewService(attendance.NewRepository(db.Client), eventSvc, studentRepo, metrics.CheckIns{})

	api := handler.New(handler.Deps{
		Tokens:     tokens,
		Students:   students.NewService(studentRepo, tokens, cfg.StudentEmailDomain),
		Teachers:   users.NewService(users.NewRepository(db.Client), tokens),
		Staff:      staffSvc,
		Events:     eventSvc,
		Attendance: attSvc,
		Logger:     logger,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(logger, "/healthz", "/metrics"))
	r.Use(metrics.Middleware())
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.Middleware(newLimiter(cfg, redisClient, "ratelimit:global", cfg.RateLimitPerMin), logger))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Healthy(c.Request.Context())
		body := gin.H{"status": "ok", "db": dbHealthy}
		status := http.StatusOK
		if redisClient.Enabled() {
			redisHealthy := redisClient.Healthy(c.Request.Context())
			body["redis"] = redisHealthy
			if !redisHealthy {
				status = http.StatusServiceUnavailable
			}
		}
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	})

	loginLimit := httpmiddleware.Middleware(newLimiter(cfg, redisClient, "ratelimit:login", cfg.LoginRateLimitPerMin), logger)
	api.Register(r, loginLimit)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", "err", err)
	}

	logger.Info("server exited")
	return nil
}

// newLimiter uses the shared Redis window when RATE_LIMIT_BACKEND=redis and
// Redis is configured, and the in-process bucket otherwise.
func newLimiter(cfg config.App, rdb *store.Redis, prefix string, perMinute int) httpmiddleware.Limiter {
	if cfg.RateLimitBackend == "redis" && rdb.Enabled() {
		return httpmiddleware.NewRedisWindow(rdb.Client, prefix, perMinute)
	}
	return httpmiddleware.NewSimpleTokenBucket(perMinute, perMinute)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        24 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
		conf.AllowCredentials = true
	}
	return cors.New(conf)
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
