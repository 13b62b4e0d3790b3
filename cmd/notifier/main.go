package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-eservice-ledger/internal/app"
	"github.com/ariefcatur/go-eservice-ledger/internal/config"
	kafkax "github.com/ariefcatur/go-eservice-ledger/internal/kafka"
	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/ariefcatur/go-eservice-ledger/internal/notify"
	"github.com/ariefcatur/go-eservice-ledger/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := app.NewLogger(cfg.LogLevel, cfg.ServiceName+"-notifier")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS is empty, nothing to consume")
		os.Exit(1)
	}

	svc := &notify.Service{Logger: logger}

	// Sender: FCM when a Firebase project is configured, log otherwise
	if cfg.FirebaseProjectID != "" || cfg.FirebaseCredentials != "" {
		fa, err := app.NewFirebase(cfg).App(ctx)
		if err != nil {
			logger.Error("firebase app", "error", err)
			os.Exit(1)
		}
		mc, err := fa.Messaging(ctx)
		if err != nil {
			logger.Error("firebase messaging", "error", err)
			os.Exit(1)
		}
		svc.Sender = &notify.FCMSender{Client: mc}
	} else {
		svc.Sender = &notify.LogSender{Logger: logger}
	}

	// Redis dedup
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		svc.Dedup = &redisx.Deduper{RDB: rdb, Service: "notifier"}
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, ledger.Topics, cfg.NotifierWorkers, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("notifier consumer started", "group", cfg.NotifierGroup, "topics", ledger.Topics, "workers", cfg.NotifierWorkers)
		if err := cons.Start(ctx, svc.HandleEvent); err != nil {
			logger.Error("consumer exit", "error", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer")
	cancel()
	<-done
}
