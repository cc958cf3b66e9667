package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/utils"
	"github.com/mmdatafocus/stock_ledger/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// correlationMiddleware attaches the request's correlation id and actor to its context.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		if actor := strings.TrimSpace(c.GetHeader("x-actor-name")); actor != "" {
			ctx = utils.SetActorNameInContext(ctx, actor)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header("x-correlation-id", cid)
		c.Next()
	}
}

// readinessMiddleware answers 503 until the inventory has been loaded.
func readinessMiddleware(ready *atomic.Bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if !ready.Load() {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

// mutationLockMiddleware serializes mutating requests across instances through
// the redis lock. With a shared store the inventory is reloaded under the lock so
// every instance mutates the latest state.
func mutationLockMiddleware(inv *models.Inventory, reloadUnderLock bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		release, err := utils.ObtainMutationLock(c.Request.Context(), "inventory", "server.go", "mutationLockMiddleware")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		defer release()

		if reloadUnderLock {
			if err := inv.Load(c.Request.Context()); err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "inventory reload failed"})
				return
			}
		}
		c.Next()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// production requires an explicit allowlist, otherwise all origins are allowed
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "x-correlation-id", "x-actor-name")
	corsConfig.AddExposeHeaders("Content-Length", "x-correlation-id")
	return corsConfig
}

// setupRouter wires middleware and routes around inv.
func setupRouter(inv *models.Inventory, ready *atomic.Bool, reloadUnderLock bool) *gin.Engine {
	logger := config.GetLogger()

	r := gin.New()
	r.Use(correlationMiddleware())
	r.Use(readinessMiddleware(ready))
	r.Use(cors.New(corsConfig()))

	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") && config.GetRedisDB() != nil {
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		r.Use(NewRateLimiter(config.GetRedisDB(), limit, time.Duration(windowSec)*time.Second).RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	r.Use(mutationLockMiddleware(inv, reloadUnderLock))

	registerRoutes(r, &handler{inv: inv})
	r.NoRoute(customNotFoundHandler)
	return r
}

// openStore connects the persistence collaborator chosen by STORAGE_BACKEND.
func openStore(logger *logrus.Logger) (models.Store, error) {
	switch config.StorageBackend() {
	case "memory":
		return models.NewMemoryStore(nil), nil
	case "mysql":
		if err := config.ConnectDatabaseWithRetry(); err != nil {
			return nil, err
		}
		db := config.GetDB()
		if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
			if err := models.MigrateTable(db); err != nil {
				return nil, err
			}
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}
		return models.NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", config.StorageBackend())
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if config.RedisConfigured() {
		if err := config.ConnectRedisWithRetry(sigCtx); err != nil {
			logger.WithFields(logrus.Fields{"field": "redis"}).Fatal(err.Error())
		}
		defer config.CloseRedis()
	}
	if topic := config.PubSubTopic(); topic != "" {
		workflow.SetPublisher(workflow.PubSubPublisher{Topic: topic})
		defer config.ClosePubSub()
	}

	var ready atomic.Bool
	store, err := openStore(logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "store"}).Fatal(err.Error())
	}
	inv := models.NewInventory(models.WithStore(store))
	reloadUnderLock := config.StorageBackend() == "mysql" && config.RedisConfigured()

	// listen before loading so the port is open during startup
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: setupRouter(inv, &ready, reloadUnderLock),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	if err := inv.Load(sigCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "inventory"}).Fatal(err.Error())
	}
	ready.Store(true)

	logger.WithFields(logrus.Fields{
		"info":    "Inventory Loaded",
		"backend": config.StorageBackend(),
	}).Info("stock ledger listening on :", port)

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if db := config.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
