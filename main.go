package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/htmlhost/htmlhost/handlers"
	"github.com/htmlhost/htmlhost/internal/bootstrap"
	"github.com/htmlhost/htmlhost/internal/config"
	dochandler "github.com/htmlhost/htmlhost/internal/document/handler"
	"github.com/htmlhost/htmlhost/pkg/logger"
	"github.com/htmlhost/htmlhost/pkg/metrics"
	"github.com/htmlhost/htmlhost/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL is honoured before the config is loaded so that config errors are visible.
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Configure(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	logger.Infof("config loaded: env=%s storage=%s mongo=%v redis=%v",
		cfg.Server.Environment, cfg.Storage.Backend, cfg.MongoDB.URI != "", cfg.Redis.Enabled())

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	deps, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect dependencies: %v", err)
	}
	defer deps.Close(context.Background())

	docSvc, err := bootstrap.DocumentService(ctx, cfg, deps)
	if err != nil {
		logger.Fatalf("failed to initialise document store: %v", err)
	}
	sessionsSvc, err := bootstrap.SessionService(ctx, cfg, deps)
	if err != nil {
		logger.Fatalf("failed to initialise sessions: %v", err)
	}
	userSvc, err := bootstrap.UserService(ctx, cfg, deps)
	if err != nil {
		logger.Fatalf("failed to initialise accounts: %v", err)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	// Optional rate limiter: per-IP on the public and auth routes, per-user on
	// the document API where it runs after the session check.
	var limit []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && deps.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit = append(limit, middleware.RedisRateLimitMiddleware(deps.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			limit = append(limit, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint: 200 only when every connected dependency answers a ping
	r.GET("/ready", func(c *gin.Context) {
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		status := map[string]bool{"documents": docSvc != nil}
		for name, perr := range deps.Ping(pctx) {
			status[name] = perr == nil
			if perr != nil {
				logger.Warnf("readiness: %s unavailable: %v", name, perr)
				ready = false
			}
		}
		body := gin.H{"status": "ready", "deps": status, "uptime": time.Since(startTime).String()}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("", limit...)
	handlers.NewAuthHandler(cfg, userSvc, sessionsSvc).Register(public)
	handlers.RegisterSwagger(public)
	handlers.RegisterPublicRoutes(public, docSvc)
	docMW := append([]gin.HandlerFunc{middleware.SessionMiddleware(sessionsSvc)}, limit...)
	dochandler.RegisterDocumentRoutes(r, docSvc, docMW...)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
