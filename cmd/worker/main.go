package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/AndreyProgger/Test-task2/internal/cache"
	"github.com/AndreyProgger/Test-task2/internal/config"
	"github.com/AndreyProgger/Test-task2/internal/db"
	"github.com/AndreyProgger/Test-task2/internal/es"
	"github.com/AndreyProgger/Test-task2/internal/logging"
	"github.com/AndreyProgger/Test-task2/internal/mykafka"
	"github.com/AndreyProgger/Test-task2/internal/repo"
	"github.com/AndreyProgger/Test-task2/internal/worker"
)

const consumerGroup = "shop-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel)

	gdb, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	store := cache.New(cfg.RedisAddr)
	if err := store.Ping(context.Background()); err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	w := &worker.Worker{
		Orders:       &repo.OrderRepo{DB: gdb},
		Users:        &repo.UserRepo{DB: gdb},
		Catalog:      &repo.CatalogRepo{DB: gdb},
		Cache:        store,
		RemoteAPIURL: cfg.RemoteAPIURL,
		Log:          logger,
	}

	w.Mailer = worker.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		w.Indexer = &worker.Indexer{ES: esClient, IndexName: cfg.ESIndex}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orderConsumer := mykafka.NewConsumer(cfg.KafkaBrokers, mykafka.TopicOrderEvents, consumerGroup, logger)
	productConsumer := mykafka.NewConsumer(cfg.KafkaBrokers, mykafka.TopicProductEvents, consumerGroup, logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := orderConsumer.Run(ctx, w.HandleOrderEvent); err != nil {
			logger.Error("order consumer stopped", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := productConsumer.Run(ctx, w.HandleProductEvent); err != nil {
			logger.Error("product consumer stopped", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.RunJanitor(ctx, cfg.CleanupInterval)
	}()

	logger.Info("worker started", "group", consumerGroup, "brokers", cfg.KafkaBrokers)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := orderConsumer.Close(); err != nil {
		logger.Error("order consumer close error", "error", err)
	}
	if err := productConsumer.Close(); err != nil {
		logger.Error("product consumer close error", "error", err)
	}

	wg.Wait()

	if err := store.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
