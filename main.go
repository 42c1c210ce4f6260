package main

import (
	"context"
	"database/sql"
	"lobbyhub/internal/config"
	"lobbyhub/internal/database/db_client"
	"lobbyhub/internal/events"
	"lobbyhub/internal/http/http_server"
	"lobbyhub/internal/lobby"
	"lobbyhub/internal/observability"
	"lobbyhub/internal/redis/redis_client"
	"lobbyhub/internal/syncevents"
	"lobbyhub/internal/syncrooms"
	"lobbyhub/internal/ws"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var pgDb *sql.DB
	var sink events.Sink = events.NopSink{}

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 2. Logger as configured
	Log, err = observability.NewLogger(cfg.Logging)
	if err != nil {
		zap.L().Fatal("Failed to build logger", zap.Error(err))
	}
	defer Log.Sync()
	zap.ReplaceGlobals(Log)
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 3. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 4. Redis event sink (optional)
	if cfg.RedisEnabled {
		redisClient, err = redis_client.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		sink = events.NewRedisSink(redisClient, cfg.RedisEventsStream)
		Log.Debug("Redis event sink enabled", zap.String("stream", cfg.RedisEventsStream))
	}

	// 5. Lifecycle event publisher
	publisher := events.NewPublisher(sink, cfg.EventQueueSize)
	publisherDone := make(chan struct{})
	go func() {
		publisher.Run(ctx)
		close(publisherDone)
	}()

	// 6. Room registry
	registry := lobby.NewRegistry()

	// 7. Postgres mirror + archive (optional)
	if cfg.PostgresEnabled {
		pgDb, err = db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()
		if err := db_client.EnsureSchema(ctx, pgDb); err != nil {
			Log.Fatal("pg-schema", zap.Error(err))
		}

		syncrooms.Run(ctx, registry, pgDb, cfg.RoomSyncInterval)
		if cfg.ArchiveEnabled() {
			syncevents.Run(ctx, redisClient, pgDb, cfg.RedisEventsStream)
		}
	}

	// 8. WebSockets hub + server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, registry, publisher,
		ws.WithAllowedOrigins(cfg.WsAllowedOrigins...),
		ws.WithSendBuffer(cfg.WsSendBuffer),
	)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, registry)
	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	stop()
	<-publisherDone
	Log.Info("shutdown complete")
}
