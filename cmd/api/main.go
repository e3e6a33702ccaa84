package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hanifwib/lapakdigital/internal/config"
	"github.com/hanifwib/lapakdigital/internal/httpx"
	kafkax "github.com/hanifwib/lapakdigital/internal/kafka"
	"github.com/hanifwib/lapakdigital/internal/orders"
	"github.com/hanifwib/lapakdigital/internal/postgres"
	"github.com/hanifwib/lapakdigital/internal/qris"
	"github.com/hanifwib/lapakdigital/internal/redisx"
	"github.com/hanifwib/lapakdigital/internal/sweep"
)

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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024, logger)
	pPaid.Start(ctx)
	pCancel := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, logger)
	pCancel.Start(ctx)

	// Repo & handlers
	repo := &orders.Repo{DB: db}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Ledger:         repo,
		QRIS:           qris.NewClient(cfg.QRISServiceURL),
		Producer:       pPaid,
		Redis:          rdb,
		Log:            logger,
		Service:        cfg.ServiceName,
		BaseQR:         cfg.QRISBaseString,
		TokenTTL:       cfg.TokenTTL,
		PendingTimeout: cfg.PendingTimeout,
	}
	oh.Register(router)
	dh := &httpx.DownloadHandler{
		Tokens:        repo,
		Log:           logger,
		PublicBaseURL: cfg.PublicBaseURL,
	}
	dh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// sweeper: cancel order pending yang lewat batas bayar
	sweeper := &sweep.Sweeper{
		Repo:     repo,
		MaxAge:   cfg.PendingTimeout,
		Every:    time.Minute,
		Producer: pCancel,
		Service:  cfg.ServiceName,
		Log:      logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			logger.Info("shutting down...")
		case <-gctx.Done():
		}
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("exit", zap.Error(err))
	}

	pPaid.Close()
	pCancel.Close()
	pPaid.WaitClosed()
	pCancel.WaitClosed()
}
