package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/config"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/arena"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/auth"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/executor"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/handlers"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/hub"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/kafka"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/metrics"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/middleware"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/presence"
	redisclient "github.com/CodeX-Labs/CodeX-Battle-Service/internal/redis"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/scoring"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/verifier"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/protocol"
)

// battleService glues matchmaking and room coordination behind the single
// dispatcher interface the hub routes to.
type battleService struct {
	*arena.Matchmaker
	*arena.Registry
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}

	cfg := config.InitConfig(os.Getenv("DEV_MODE") == "true")

	m := metrics.New()

	rdb, err := redisclient.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	h := hub.NewHub(m, logger)

	pubsub := redisclient.NewPubSub(rdb, func(envelope *redisclient.PubSubEnvelope) {
		if envelope.TargetUser != "" {
			h.DeliverLocal(envelope.TargetUser, envelope.Message)
			return
		}
		if msg, err := protocol.ParseMessage(envelope.Message); err == nil {
			h.Broadcast(msg)
		}
	}, logger)
	if err := pubsub.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start pubsub")
	}
	defer pubsub.Stop()

	h.SetRemotePublisher(pubsub)

	presenceMgr := presence.NewManager(rdb, pubsub.GetInstanceID(), logger)

	catalog := challenge.NewCatalog(logger)
	if cfg.Challenges.SeedFile != "" {
		n, err := challenge.LoadSeedFile(cfg.Challenges.SeedFile, catalog)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.Challenges.SeedFile).Msg("Failed to load challenge seed file")
		}
		logger.Info().Int("challenges", n).Msg("Challenge catalog seeded")
	}

	dispatcher := executor.NewDispatcher(cfg.Oracle.URL, cfg.Oracle.Timeout, m, logger)
	v := verifier.New(dispatcher, logger)

	var reporter scoring.Reporter = scoring.NopReporter{}
	if cfg.Scoring.URL != "" {
		reporter = scoring.NewHTTPReporter(cfg.Scoring.URL, 10*time.Second, logger)
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, m, logger)
	defer producer.Close()

	registry := arena.NewRegistry(h, v, reporter, producer, m, logger)
	matchmaker := arena.NewMatchmaker(rdb, catalog, registry, h, m, logger)

	h.SetBattleDispatcher(&battleService{Matchmaker: matchmaker, Registry: registry})
	h.SetPingHandler(func(userID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		presenceMgr.Refresh(ctx, userID)
	})
	h.SetDisconnectHandler(func(userID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		presenceMgr.SetOffline(ctx, userID)
		pubsub.UnsubscribeFromUser(userID)
		matchmaker.CancelWait(ctx, userID)
		registry.PlayerDisconnected(userID)
	})

	go h.Run()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topics, m, logger)
	kafka.NewHandlers(catalog, logger).RegisterAll(consumer)
	consumer.Start()
	defer consumer.Stop()

	validator := auth.NewJWTValidator(cfg.Auth.JWTSecret)
	ratelimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	wsHandler := handlers.NewWebSocketHandler(h, presenceMgr, pubsub, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/ws", ratelimiter.Middleware(auth.AuthMiddleware(validator, m.IncAuthFailures)(wsHandler)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handlers.HealthHandler())
	mux.HandleFunc("/readyz", handlers.ReadyHandler(h, registry.RoomCount))

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.App.Port).Str("app", cfg.App.Name).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
