package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	catalogapp "github.com/brizzinck/tyutyun-shop/internal/catalog/application"
	cataloghttp "github.com/brizzinck/tyutyun-shop/internal/catalog/infrastructure/http"
	catalogpg "github.com/brizzinck/tyutyun-shop/internal/catalog/infrastructure/postgres"
	"github.com/brizzinck/tyutyun-shop/internal/config"
	invpg "github.com/brizzinck/tyutyun-shop/internal/inventory/infrastructure/postgres"
	"github.com/brizzinck/tyutyun-shop/internal/notification"
	notifkafka "github.com/brizzinck/tyutyun-shop/internal/notification/kafka"
	orderapp "github.com/brizzinck/tyutyun-shop/internal/order/application"
	orderhttp "github.com/brizzinck/tyutyun-shop/internal/order/infrastructure/http"
	orderkafka "github.com/brizzinck/tyutyun-shop/internal/order/infrastructure/kafka"
	orderpg "github.com/brizzinck/tyutyun-shop/internal/order/infrastructure/postgres"
	"github.com/brizzinck/tyutyun-shop/internal/storage/migrate"
	storagepg "github.com/brizzinck/tyutyun-shop/internal/storage/postgres"
	userapp "github.com/brizzinck/tyutyun-shop/internal/user/application"
	userhttp "github.com/brizzinck/tyutyun-shop/internal/user/infrastructure/http"
	userpg "github.com/brizzinck/tyutyun-shop/internal/user/infrastructure/postgres"
	userredis "github.com/brizzinck/tyutyun-shop/internal/user/infrastructure/redis"
	"github.com/brizzinck/tyutyun-shop/pkg/logging"
	"github.com/brizzinck/tyutyun-shop/pkg/outbox"
	"github.com/brizzinck/tyutyun-shop/pkg/shutdown"
	"github.com/brizzinck/tyutyun-shop/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.Init(ctx, "tyutyun-server", cfg.OTLPEndpoint, log)
		if err != nil {
			log.Error("tracing init failed", "err", err)
			os.Exit(1)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	if err := os.MkdirAll(cfg.ProductImageDir, 0o755); err != nil {
		log.Error("create image dir failed", "dir", cfg.ProductImageDir, "err", err)
		os.Exit(1)
	}

	if err := migrate.Up(cfg.PostgresURL, log); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := storagepg.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	mailer, err := notification.NewMailer(log, cfg.SMTP)
	if err != nil {
		log.Error("mailer init failed", "err", err)
		os.Exit(1)
	}

	// Inventory and catalog
	ledger := invpg.NewLedger(log, pool)
	catalogRepo := catalogpg.NewRepository(log, pool)
	catalogSvc := catalogapp.NewService(log, catalogRepo, ledger)
	catalogHandler := cataloghttp.NewHandler(log, catalogSvc)

	// Orders
	orderRepo := orderpg.NewRepository(log, pool, ledger)
	orderSvc := orderapp.NewService(log, orderRepo, catalogSvc)
	orderHandler := orderhttp.NewHandler(log, orderSvc)

	// Users
	userRepo := userpg.NewRepository(log, pool)
	tokens := userredis.NewTokenStore(rdb)
	userSvc := userapp.NewService(log, userRepo, tokens, mailer, cfg.PublicBaseURL, cfg.RegistrationTTL)
	userHandler := userhttp.NewHandler(log, userSvc)

	// Outbox relay and notification consumer
	store := orderpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OrderEventsTopic)
	relay := outbox.NewRelay(log, store, dispatch, "tyutyun-relay-"+uuid.NewString())

	dedup := notifkafka.NewDedup(rdb, 24*time.Hour)
	consumer := notifkafka.NewConsumer(log, cfg.KafkaBrokers, cfg.OrderEventsTopic, "tyutyun-notifications", mailer, dedup)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Route("/api", func(api chi.Router) {
		catalogHandler.Register(api)
		orderHandler.Register(api)
		userHandler.Register(api)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("notification consumer stopped with error", "err", err)
			cancel()
		}
	}()
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("tyutyun-server shutdown complete")
}
