package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/AndreyProgger/Test-task2/internal/cache"
	"github.com/AndreyProgger/Test-task2/internal/config"
	"github.com/AndreyProgger/Test-task2/internal/db"
	"github.com/AndreyProgger/Test-task2/internal/es"
	"github.com/AndreyProgger/Test-task2/internal/handlers"
	"github.com/AndreyProgger/Test-task2/internal/logging"
	loggingmw "github.com/AndreyProgger/Test-task2/internal/middleware/logging"
	"github.com/AndreyProgger/Test-task2/internal/mykafka"
	"github.com/AndreyProgger/Test-task2/internal/notify"
	"github.com/AndreyProgger/Test-task2/internal/repo"
	"github.com/AndreyProgger/Test-task2/internal/service/order"
	"github.com/AndreyProgger/Test-task2/internal/service/token"
	httpserver "github.com/AndreyProgger/Test-task2/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	gdb, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	producer, err := mykafka.NewProducer(cfg.KafkaBrokers, []string{
		mykafka.TopicUserEvents,
		mykafka.TopicProductEvents,
		mykafka.TopicOrderEvents,
	})
	if err != nil {
		log.Fatalf("kafka init error: %v", err)
	}

	store := cache.New(cfg.RedisAddr)
	if err := store.Ping(context.Background()); err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	catalogRepo := &repo.CatalogRepo{DB: gdb}
	orderRepo := &repo.OrderRepo{DB: gdb}
	userRepo := &repo.UserRepo{DB: gdb}

	orderSvc := &order.Service{
		DB:       gdb,
		Catalog:  catalogRepo,
		Orders:   orderRepo,
		Notifier: &notify.KafkaNotifier{Producer: producer, Log: logger},
		Cache:    store,
	}

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			Users:         userRepo,
			JWTSecret:     []byte(cfg.JWTSecret),
			RefreshSecret: []byte(cfg.RefreshSecret),
			Producer:      producer,
		},
		ProductHandler: &handlers.ProductHandler{
			Catalog:  catalogRepo,
			Cache:    store,
			Producer: producer,
		},
		OrderHandler: &handlers.OrderHandler{Svc: orderSvc},
		TokenService: &token.TokenService{
			DB:            gdb,
			Users:         userRepo,
			JWTSecret:     []byte(cfg.JWTSecret),
			RefreshSecret: []byte(cfg.RefreshSecret),
		},
	}

	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: cfg.ESIndex}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	logger.Info("shutdown complete")
}
