package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/mmdatafocus/storefront_insights/middlewares"
	"github.com/mmdatafocus/storefront_insights/models"
	"github.com/mmdatafocus/storefront_insights/utils"
	"github.com/mmdatafocus/storefront_insights/workflow"
	"github.com/sirupsen/logrus"
)

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func corsConfig(s config.Settings) cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist; elsewhere allow all.
	if s.IsProduction() {
		corsConfig.AllowOrigins = utils.TrimList(s.CorsOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			// Deny all if not configured in production.
			corsConfig.AllowOriginFunc = func(origin string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	corsConfig.AllowCredentials = true
	return corsConfig
}

// readinessGate answers /healthz directly and returns 503 for everything else until ready reports true.
func readinessGate(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if !ready() {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

func newRouter(s config.Settings, svc insightsGenerator, ready func() bool, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(readinessGate(ready))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig(s)))

	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW=60s
	// - RATE_LIMIT_MAX_REQUESTS=600
	// Counts only once the shared redis client is connected; app routes are gated on readiness before this.
	if s.RateLimit.Enabled && s.RedisAddress != "" {
		rateLimiter := middlewares.NewRateLimiter(config.GetRedisDB, s.RateLimit.MaxRequests, s.RateLimit.Window)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	admin := r.Group("/api/admin", middlewares.AdminMiddleware(s.APISecret))
	admin.GET("/insights", insightsHandler(svc))
	admin.GET("/insights/export", insightsExportHandler(svc))

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	settings := config.GetSettings()
	config.SetLogLevel(settings.LogLevel)
	port := settings.ListenPort()

	logger := config.GetLogger()
	if settings.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if settings.APISecret == "" {
		logger.WithFields(logrus.Fields{"field": "auth"}).Warn("API_SECRET not set; admin routes are unauthenticated")
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until the database is connected, app endpoints return 503.
	svc := &lazyInsights{}
	r := newRouter(settings, svc, svc.Ready, logger)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	if err := config.ConnectDatabaseWithRetry(sigCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Error("database not connected: " + err.Error())
		return
	}
	if err := config.ConnectRedisWithRetry(sigCtx); err != nil {
		if sigCtx.Err() != nil {
			return
		}
		logger.WithFields(logrus.Fields{"field": "redis"}).Warn("redis not connected; rate limiting and generation lock disabled: " + err.Error())
	}

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a separate job instead.
	if !config.SkipMigrations() {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Error("AutoMigrate failed: " + err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	insightsService, notifier, err := workflow.NewInsightsService(settings, db, logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "insights"}).Error("cannot build insights service: " + err.Error())
		return
	}

	// Start the insights notifier (publishes generation events to Pub/Sub).
	notifierCtx, cancelNotifier := context.WithCancel(context.Background())
	defer cancelNotifier()
	if notifier != nil {
		go notifier.Run(notifierCtx)
	}

	svc.Set(insightsService)
	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api/admin/insights")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelNotifier()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.ClosePubSub()
	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
