package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-eservice-ledger/internal/app"
	"github.com/ariefcatur/go-eservice-ledger/internal/config"
	"github.com/ariefcatur/go-eservice-ledger/internal/httpx"
	kafkax "github.com/ariefcatur/go-eservice-ledger/internal/kafka"
	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/ariefcatur/go-eservice-ledger/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := app.NewLogger(cfg.LogLevel, cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fb := app.NewFirebase(cfg)

	// Store
	store, err := app.OpenStore(ctx, cfg, fb)
	if err != nil {
		logger.Error("store open", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	verifier, err := app.NewVerifier(ctx, cfg, fb)
	if err != nil {
		logger.Error("auth setup", "mode", cfg.AuthMode, "error", err)
		os.Exit(1)
	}

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithProducer(cfg.ServiceName),
		ledger.WithStrictPricing(cfg.StrictPricing),
	}
	handler := &httpx.Handler{Verifier: verifier, Logger: logger}

	// Redis (optional): catalog cache + order idempotency
	var cache ledger.CatalogCache
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		cache = &redisx.CatalogCache{RDB: rdb, TTL: cfg.CatalogTTL, Logger: logger}
		opts = append(opts, ledger.WithCatalogCache(cache))
		handler.Idem = &redisx.Idempotency{RDB: rdb}
	}

	// Kafka (optional): ledger events
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
		prod.Start(ctx)
		opts = append(opts, ledger.WithEvents(kafkax.NewPublisher(prod)))
	}

	handler.Ledger = ledger.New(store, opts...)
	handler.Catalog = ledger.NewCatalog(store, cache, logger)

	router := httpx.NewRouter()
	handler.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "auth", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()      // close inbox -> flush & close writer
		cancel()          // stop producer loop
		prod.WaitClosed() // drain
	}
}
