package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hanifwib/lapakdigital/internal/config"
	kafkax "github.com/hanifwib/lapakdigital/internal/kafka"
	"github.com/hanifwib/lapakdigital/internal/mailer"
	"github.com/hanifwib/lapakdigital/internal/notifier"
	"github.com/hanifwib/lapakdigital/internal/orders"
	"github.com/hanifwib/lapakdigital/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Redis:         rdb,
		Mail:          &mailer.SMTP{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.SMTPFrom},
		Log:           logger,
		ServiceName:   cfg.ServiceName + "-notifier",
		PublicBaseURL: cfg.PublicBaseURL,
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPaid, workers, logger)

	go func() {
		logger.Info("notifier consumer started",
			zap.String("group", group), zap.String("topic", orders.TopicOrderPaid), zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandlePaid); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
