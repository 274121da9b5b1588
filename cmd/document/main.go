package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/htmlhost/htmlhost/internal/bootstrap"
	"github.com/htmlhost/htmlhost/internal/config"
	"github.com/htmlhost/htmlhost/internal/document/handler"
	"github.com/htmlhost/htmlhost/internal/document/service"
	"github.com/htmlhost/htmlhost/pkg/logger"
	"github.com/htmlhost/htmlhost/pkg/middleware"
)

// Document API only. Sessions are issued by the main server; this process
// verifies them with the shared AUTH_SECRET and revocation store.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("DOC_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	deps, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect dependencies: %v", err)
	}
	defer deps.Close(context.Background())

	svc, err := bootstrap.DocumentService(ctx, cfg, deps)
	if err != nil {
		if cfg.Server.IsProduction() {
			logger.Fatalf("failed to initialise document store: %v", err)
		}
		logger.Warnf("cannot open %s document store (%v); using memory-backed store", cfg.Storage.Backend, err)
		svc = service.NewMemoryService()
	}
	sessionsSvc, err := bootstrap.SessionService(ctx, cfg, deps)
	if err != nil {
		logger.Fatalf("failed to initialise sessions: %v", err)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())
	handler.RegisterDocumentRoutes(r, svc, middleware.SessionMiddleware(sessionsSvc))

	logger.Infof("document service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
