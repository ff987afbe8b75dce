package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/services"
	handlers "github.com/123hpcomsetup-j/streamvibe/internal/handlers/http"
	"github.com/123hpcomsetup-j/streamvibe/internal/infrastructure/media"
	"github.com/123hpcomsetup-j/streamvibe/internal/infrastructure/middleware"
	"github.com/123hpcomsetup-j/streamvibe/internal/infrastructure/monitoring"
	memoryrepo "github.com/123hpcomsetup-j/streamvibe/internal/infrastructure/repositories/memory"
	redisrepo "github.com/123hpcomsetup-j/streamvibe/internal/infrastructure/repositories/redis"
	wssignal "github.com/123hpcomsetup-j/streamvibe/internal/infrastructure/signal"
	"github.com/123hpcomsetup-j/streamvibe/pkg/config"
	"github.com/123hpcomsetup-j/streamvibe/pkg/logger"
	"github.com/123hpcomsetup-j/streamvibe/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()
	sugar := zlog.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "streamvibe-signald",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		sugar.Fatalw("failed to initialize tracing", "error", err)
	}

	var telemetry ports.Telemetry = ports.NopTelemetry{}
	if cfg.Monitoring.PrometheusEnabled {
		telemetry = monitoring.NewPrometheusCollector()
	}

	var directory ports.StreamDirectory = memoryrepo.NewStreamDirectory(true)
	var archive ports.ChatArchive
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, sugar)
		if err != nil {
			sugar.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		directory = redisrepo.NewStreamDirectory(client)
		archive = redisrepo.NewChatArchive(client, cfg.Redis.ArchiveMaxLen)
	}

	gateway, err := media.NewGateway(cfg)
	if err != nil {
		sugar.Fatalw("failed to build media gateway", "error", err)
	}

	coordinator := services.NewCoordinator(directory, gateway, archive, telemetry, sugar, services.CoordinatorConfig{
		HistoryCapacity: cfg.Chat.HistoryCapacity,
		MaxMessageLen:   cfg.Chat.MaxMessageLength,
		MaxTipAmount:    cfg.Chat.MaxTipAmount,
	})

	verifier := wssignal.NewTokenVerifier(cfg.Auth.JWTSecret)
	wsServer := wssignal.NewWebSocketServer(coordinator, verifier, cfg, sugar)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(50, 100))

	streamHandler := handlers.NewStreamHandler(coordinator, cfg.ICEServers())
	streamHandler.SetupRoutes(router)

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sugar.Infow("signaling server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("server shutdown failed", "error", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		sugar.Errorw("tracer shutdown failed", "error", err)
	}
}
