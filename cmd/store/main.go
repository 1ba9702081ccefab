package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/events"
	"github.com/Skotchmaster/robotech_store/internal/httpserver"
	"github.com/Skotchmaster/robotech_store/internal/otp"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/internal/search"
	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/pkg/config"
	pkgdb "github.com/Skotchmaster/robotech_store/pkg/db"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}
	cfg := config.Load()
	config.MustNonEmpty(cfg.SQLitePath, "SQLITE_PATH")
	config.MustOneOf(cfg.SeedMode, "SEED_MODE", config.SeedModeReset, config.SeedModeUpsert)

	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(l)
	ctx := logging.IntoContext(context.Background(), l)

	cat, err := catalog.Load()
	if err != nil {
		l.Error("catalog_load_failed", "error", err)
		os.Exit(1)
	}

	primary := ""
	if cfg.PrimaryEnabled() {
		primary = cfg.DatabaseURL
	}
	store, err := pkgdb.Open(ctx, pkgdb.Options{
		PrimaryDSN:     primary,
		FallbackPath:   cfg.SQLitePath,
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         l,
	})
	if err != nil {
		l.Error("db_init_failed", "error", err)
		os.Exit(1)
	}
	r := repo.New(store)

	var searcher *search.Client
	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		searcher, err = search.NewClient(esCtx, search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		cancel()
		if err != nil {
			l.Warn("search_backend_unavailable", "error", err)
			searcher = nil
		}
	}

	schema := &service.SchemaService{Repo: r, Catalog: cat}
	catalogSvc := &service.CatalogService{Repo: r, Catalog: cat}
	if searcher != nil {
		schema.Indexer = searcher
		catalogSvc.Searcher = searcher
	}

	if _, err := schema.Initialize(ctx, cfg.SeedMode); err != nil {
		l.Error("schema_init_failed", "mode", cfg.SeedMode, "error", err)
		_ = store.Close()
		os.Exit(1)
	}

	var otpStore otp.Store = otp.NewMemoryStore()
	var redisStore *otp.RedisStore
	if cfg.RedisAddr != "" {
		redisStore, err = otp.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			l.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
		} else {
			otpStore = redisStore
		}
	}

	var publisher events.Publisher = events.LogPublisher{Logger: l}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		l.Info("kafka_publisher_enabled", "brokers", cfg.KafkaBrokers)
	}

	cartSvc := &service.CartService{Repo: r, Events: publisher}
	orderSvc := &service.OrderService{Repo: r, Events: publisher}

	e := httpserver.New(httpserver.Options{
		Logger:         l,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
	}, &httpserver.Deps{
		Store:   store,
		Catalog: &httpserver.CatalogHTTP{Svc: catalogSvc},
		Cart:    &httpserver.CartHTTP{Svc: cartSvc},
		Auth: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo:   r,
			OTP:    otpStore,
			Events: publisher,
			TTL:    cfg.OTPTTL,
		}},
		Orders: &httpserver.OrderHTTP{
			Svc:      orderSvc,
			Checkout: &service.Checkout{Cart: cartSvc, Orders: orderSvc},
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		l.Info("http_server_started", "addr", srv.Addr, "backend", store.Backend(), "catalog_version", cat.Version())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("http_shutdown_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		l.Error("events_close_error", "error", err)
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			l.Error("redis_close_error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		l.Error("db_close_error", "error", err)
	}

	l.Info("shutdown_complete")
}
