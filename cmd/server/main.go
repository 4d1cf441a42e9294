package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/gokoo/ai-toolbox/auth"
	"github.com/gokoo/ai-toolbox/cache"
	"github.com/gokoo/ai-toolbox/chat"
	"github.com/gokoo/ai-toolbox/config"
	"github.com/gokoo/ai-toolbox/plugins"
	"github.com/gokoo/ai-toolbox/server"
	"github.com/gokoo/ai-toolbox/stores"
)

var logger = log.New(os.Stdout, "[main] ", log.LstdFlags)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Println("no .env file found, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	messageCache := openCache(cfg)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.ExpireAccessH)
	builtins := plugins.NewBuiltinTable(store)
	registry := plugins.NewRegistry(store, nil)
	gateway := plugins.NewGateway(store, builtins, cfg.Gateway.Timeout)

	events := chat.NewBroadcaster()
	tracker := chat.NewTracker(store, events)
	executor := chat.NewExecutor(cfg.Chat.Workers)
	defer executor.Shutdown()

	completion := chat.NewCompletionClient(
		cfg.Completion.Endpoint,
		cfg.Completion.APIKey,
		cfg.Completion.Model,
		cfg.Completion.Temperature,
		cfg.Completion.MaxTokens,
		cfg.Completion.Timeout,
	)
	orchestrator := chat.NewOrchestrator(
		store, messageCache, gateway, builtins, completion,
		tracker, executor, events, cfg.Chat.HistoryLimit,
	)

	sweeper := server.NewSweeper(store, tracker, cfg.Chat.RunningToolTTL)
	if err := sweeper.Start(); err != nil {
		logger.Fatalf("failed to start sweeper: %v", err)
	}
	defer sweeper.Stop()

	srv := server.NewServer(store, messageCache, jwtService, registry, builtins, gateway, orchestrator, tracker, events)
	router := srv.Router()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Printf("%s listening on %s (%s)", cfg.ServerName, addr, cfg.Environment)
	if err := router.Run(addr); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

func openStore(cfg *config.AppConfig) (*stores.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return stores.NewPostgresStore(
			cfg.Database.Host,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.Port,
		)
	default:
		return stores.NewSQLiteStore(cfg.Database.Path)
	}
}

// openCache connects redis when configured; a nil cache disables it.
func openCache(cfg *config.AppConfig) *cache.MessageCache {
	if cfg.Redis.Address == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	messageCache, err := cache.NewMessageCache(client, cfg.Redis.CacheTTL)
	if err != nil {
		logger.Printf("redis unavailable, continuing without cache: %v", err)
		return nil
	}
	return messageCache
}
