package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/RazaAli313/clubchat/internal/api"
	"github.com/RazaAli313/clubchat/internal/auth"
	cfgpkg "github.com/RazaAli313/clubchat/internal/config"
	"github.com/RazaAli313/clubchat/internal/events"
	"github.com/RazaAli313/clubchat/internal/identity"
	"github.com/RazaAli313/clubchat/internal/logger"
	"github.com/RazaAli313/clubchat/internal/pubsub"
	"github.com/RazaAli313/clubchat/internal/repository"
	"github.com/RazaAli313/clubchat/internal/service"
	"github.com/RazaAli313/clubchat/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.Server.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync()

	mc, err := repository.NewMongoClient(cfg)
	if err != nil {
		zl.Fatalw("mongo init", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	db := mc.Database(cfg.Mongo.Database)
	convRepo := repository.NewConversationRepository(db.Collection("conversations"))
	msgRepo := repository.NewMessageRepository(db.Collection("messages"))

	profiles := identity.NewClient(identity.Config{
		BaseURL: cfg.Identity.BaseURL,
		Timeout: cfg.IdentityTimeout,
	})

	var exporter service.EventExporter
	var producer *events.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		exporter = producer
		defer producer.Close()
	}

	bus := pubsub.NewPublisher(rdb)
	svc := service.NewChatService(convRepo, msgRepo, profiles, bus, exporter, zl)

	hub := ws.NewHub()
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	go pubsub.NewSubscriber(rdb, hub, zl).Run(subCtx)

	verifier, err := auth.NewVerifier(cfg.JWT.PublicKeyPath)
	if err != nil {
		zl.Fatalw("jwt verifier init", "err", err)
	}

	srv := api.NewServer(cfg, svc, hub, verifier, rdb, zl)
	go func() {
		if err := srv.Listen(":" + cfg.Server.Port); err != nil {
			zl.Fatalw("server listen", "err", err)
		}
	}()
	zl.Infow("clubchat started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	subCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown()
	_ = mc.Disconnect(ctx)
	zl.Info("clubchat stopped")
}
