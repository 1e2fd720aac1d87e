package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/line-dify-relay/server/internal/core"
	"github.com/line-dify-relay/server/internal/relay"
	"github.com/line-dify-relay/server/internal/relay/dify"
	"github.com/line-dify-relay/server/internal/relay/line"
	"github.com/line-dify-relay/server/internal/relay/model"
	"github.com/line-dify-relay/server/internal/relay/store"
	logx "github.com/line-dify-relay/server/pkg/logger"
	pkgredis "github.com/line-dify-relay/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the relay, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Server model.ServerConfig
	Dify   model.DifyConfig
	Line   model.LineConfig

	// Conversation store
	Conversation model.ConversationConfig
	Redis        pkgredis.Config
}

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	env := core.ParseEnvironment(cfg.Server.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})

	// Credentials default to empty so the relay still starts; every
	// downstream call will fail authentication until they are set.
	if cfg.Dify.APIKey == "" || cfg.Dify.BaseURL == "" {
		logx.Warn().Msg("DIFY_API_KEY or DIFY_API not set, backend calls will fail")
	}
	if cfg.Line.AccessToken == "" || cfg.Line.ChannelSecret == "" {
		logx.Warn().Msg("ACCESS_TOKEN or CHANNEL_SECRET not set, webhook deliveries will be rejected")
	}

	minInterval, err := time.ParseDuration(cfg.Dify.MinInterval)
	if err != nil {
		log.Fatalf("Invalid DIFY_MIN_INTERVAL '%s': %v", cfg.Dify.MinInterval, err)
	}
	difyTimeout, err := time.ParseDuration(cfg.Dify.Timeout)
	if err != nil {
		log.Fatalf("Invalid DIFY_TIMEOUT '%s': %v", cfg.Dify.Timeout, err)
	}
	lineTimeout, err := time.ParseDuration(cfg.Line.Timeout)
	if err != nil {
		log.Fatalf("Invalid LINE_TIMEOUT '%s': %v", cfg.Line.Timeout, err)
	}

	conversations, cleanup, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise conversation store: %v", err)
	}
	defer cleanup()

	backend := dify.NewClient(dify.Config{
		APIKey:      cfg.Dify.APIKey,
		BaseURL:     cfg.Dify.BaseURL,
		MinInterval: minInterval,
		Timeout:     difyTimeout,
	})
	replier := line.NewReplyClient(cfg.Line.AccessToken, cfg.Line.BaseURL, lineTimeout)
	handler := relay.NewHandler(conversations, backend, replier)

	srv := relay.NewServer(cfg.Server.Port, cfg.Line.ChannelSecret, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logx.Fatal().Err(err).Msg("server failed")
		}
	case sig := <-quit:
		logx.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logx.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

// buildStore selects the conversation store: in-memory by default, Redis
// when a REDIS_URL is configured.
func buildStore(cfg AppConfig) (model.ConversationStore, func(), error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Msg("using in-memory conversation store")
		return store.NewMemoryStore(), func() {}, nil
	}

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		return nil, nil, err
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, nil, err
	}

	logx.Info().Dur("ttl", ttl).Msg("using redis conversation store")
	return store.NewRedisStore(rdb, ttl), func() { _ = rdb.Close() }, nil
}
