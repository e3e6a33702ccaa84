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

	"github.com/hanifwib/lapakdigital/internal/httpx"
)

// qrisd: service kalkulasi QRIS — stateless, cuma CRC16 + injeksi tag nominal.
// Dipisah dari API utama supaya merchant lain bisa pakai tanpa ikut storefront.
func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	port := os.Getenv("QRIS_SERVICE_PORT")
	if port == "" {
		port = "33416"
	}

	router := httpx.NewRouter()
	(&httpx.QRISHandler{}).Register(router)

	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		logger.Info("qrisd listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
