// Package api wires together all HTTP routes for the identity sync service.
//
// Route grouping philosophy:
//   - The webhook endpoint (/auth/clerk_webhook/) is intentionally
//     unauthenticated at the HTTP layer: Clerk authenticates every delivery
//     with a Svix signature, which the handler verifies before doing anything
//     else. Rate limiting still applies to blunt flooding from spoofed
//     sources.
//   - Read endpoints (/api/v1/) serve the synchronized identity data to
//     internal consumers.
package api

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/identity-sync/identity-sync/internal/api/users"
	"github.com/identity-sync/identity-sync/internal/api/webhooks"
	"github.com/identity-sync/identity-sync/internal/clerk"
	"github.com/identity-sync/identity-sync/internal/config"
	"github.com/identity-sync/identity-sync/internal/db/repositories"
	"github.com/identity-sync/identity-sync/internal/middleware"
	"github.com/identity-sync/identity-sync/internal/reconcile"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)

	// Wrap *sql.DB with sqlx for the membership repository
	sqlxDB := sqlx.NewDb(db, "postgres")
	membershipRepo := repositories.NewMembershipRepository(sqlxDB)

	// Initialize the webhook signature verifier
	verifier, err := clerk.NewVerifier(cfg.Clerk.WebhookSigningSecret)
	if err != nil {
		log.Fatalf("Failed to initialize webhook verifier: %v", err)
	}

	// Initialize reconcilers
	userReconciler := reconcile.NewUserReconciler(userRepo)
	orgReconciler := reconcile.NewOrganizationReconciler(userRepo, orgRepo, membershipRepo)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint
	router.GET("/ready", readinessHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Initialize rate limiters
	webhookRateLimiter := middleware.NewRateLimiter(middleware.WebhookRateLimitConfig(
		cfg.Security.RateLimiting.RequestsPerMinute,
		cfg.Security.RateLimiting.Burst,
	))
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	// Webhook endpoint (public, authentication via signature verification)
	webhookHandler := webhooks.NewClerkWebhookHandler(verifier, userReconciler, orgReconciler)
	webhookGroup := router.Group("/auth")
	if cfg.Security.RateLimiting.Enabled {
		webhookGroup.Use(middleware.RateLimitMiddleware(webhookRateLimiter))
	}
	{
		webhookGroup.POST("/clerk_webhook/", webhookHandler.HandleWebhook)
	}

	// Read API endpoints
	usersHandler := users.NewHandler(userRepo, membershipRepo)
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	{
		apiV1.GET("/users/:clerk_id/organizations", usersHandler.ListOrganizations)
	}

	bg := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{webhookRateLimiter, generalRateLimiter},
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service. The database
// is the only dependency, so readiness and liveness differ mainly in how the
// checks are reported.
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
