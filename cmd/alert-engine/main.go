package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/votewatch/election-alerts/internal/api"
	"github.com/votewatch/election-alerts/internal/config"
	"github.com/votewatch/election-alerts/internal/directory"
	"github.com/votewatch/election-alerts/internal/engine"
	"github.com/votewatch/election-alerts/internal/ledger"
	"github.com/votewatch/election-alerts/internal/logging"
	"github.com/votewatch/election-alerts/internal/notify"
	"github.com/votewatch/election-alerts/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	led, err := ledger.NewSQLiteLedger(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize ledger: %v", err)
	}
	defer led.Close()

	dir, err := directory.NewSQLiteDirectory(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize user directory: %v", err)
	}
	defer dir.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create broadcaster for the live alert feed
	broadcaster := stream.NewBroadcaster()

	// Notification fan-out: the log notifier stands in for real gateways
	dispatcher := notify.NewDispatcher(
		notify.NewLogNotifier(),
		dir,
		cfg.Escalation.Contacts,
		cfg.Dispatch.Workers,
		cfg.Dispatch.BufferSize,
	)
	dispatcher.Start(ctx)

	eng := engine.New(led, dispatcher, broadcaster, cfg.Escalation.Delays)

	// Reload open alerts and re-arm escalation timers from the ledger
	if err := eng.Rebuild(ctx); err != nil {
		logging.Fatalf("Failed to rebuild alert store: %v", err)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.API.RateLimit))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := api.NewHandler(eng, broadcaster)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	eng.Stop()        // cancel escalation timers
	dispatcher.Stop() // drain queued deliveries
	broadcaster.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
