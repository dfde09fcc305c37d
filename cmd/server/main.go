package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Serapsys/jobSite/internal/api"
	"github.com/Serapsys/jobSite/internal/auth"
	"github.com/Serapsys/jobSite/internal/config"
	"github.com/Serapsys/jobSite/internal/directory"
	"github.com/Serapsys/jobSite/internal/events"
	"github.com/Serapsys/jobSite/internal/gateway"
	"github.com/Serapsys/jobSite/internal/hub"
	"github.com/Serapsys/jobSite/internal/logger"
	"github.com/Serapsys/jobSite/internal/presence"
	"github.com/Serapsys/jobSite/internal/service"
	"github.com/Serapsys/jobSite/internal/store"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	sugar, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = sugar.Sync() }()
	sugar.Infow("starting", "service", cfg.App.Name, "env", cfg.App.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Mongo
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		sugar.Fatalf("mongo connect: %v", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	if err := mc.Ping(ctx, nil); err != nil {
		sugar.Fatalf("mongo ping: %v", err)
	}
	convStore, err := store.NewMongoStore(ctx, mc.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
	if err != nil {
		sugar.Fatalf("mongo indexes: %v", err)
	}

	// Redis (optional: presence and cross-instance fan-out)
	var pres *presence.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Fatalf("redis ping: %v", err)
		}
		pres = presence.NewStore(rdb, cfg.Redis.Prefix)
	} else {
		sugar.Warn("redis not configured; presence and multi-instance fan-out disabled")
	}

	// Kafka (optional: message.sent events)
	var pub events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
		defer func() { _ = kp.Close() }()
		pub = kp
	}

	// User directory
	var dir directory.Directory
	if cfg.Directory.BaseURL != "" {
		dir = directory.NewHTTPDirectory(cfg.Directory.BaseURL, cfg.Directory.Timeout())
	} else {
		sugar.Warn("user directory not configured; accepting all participant ids")
		dir = allowAllDirectory{}
	}

	svc := service.NewConversationService(convStore, dir, pub, sugar)
	validator := auth.NewValidator(cfg.App.JWTSecret)

	h := hub.New()
	gw := gateway.New(h, svc, pres, validator, sugar, gateway.Options{
		PingInterval: cfg.WS.PingInterval(),
		WriteWait:    cfg.WS.WriteWait(),
		PongWait:     cfg.WS.PongWait(),
		MaxMsgSize:   cfg.WS.MaxMessageBytes,
		SendBuffer:   cfg.WS.SendBuffer,
	})

	fanoutCtx, stopFanout := context.WithCancel(context.Background())
	defer stopFanout()
	go gw.RunFanout(fanoutCtx)

	app := api.NewServer(cfg.App.Name, api.NewHandler(svc, pres, sugar), gw, validator, sugar)

	errs := make(chan error, 1)
	go func() {
		errs <- app.Listen(fmt.Sprintf(":%d", cfg.App.Port))
	}()
	sugar.Infow("listening", "port", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		sugar.Fatalf("server error: %v", err)
	case sig := <-quit:
		sugar.Infow("shutting down", "signal", sig.String())
	}

	stopFanout()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		sugar.Warnf("shutdown: %v", err)
	}
	sugar.Info("stopped")
}

// allowAllDirectory stands in when no user service is reachable (local dev).
type allowAllDirectory struct{}

func (allowAllDirectory) Exists(context.Context, string) (bool, error) { return true, nil }
