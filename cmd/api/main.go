package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/client"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/config"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/repository"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/server"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	db, err := client.OpenDatabase(cfg.Database)
	if err != nil {
		slog.Error("Failed to init database", "err", err)
		os.Exit(1)
	}

	paymongoClient := client.NewPayMongoClient(&cfg.PayMongo)

	intentRepo := repository.NewIntentRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	checkoutService := service.NewCheckoutService(paymongoClient, intentRepo, orderRepo, cfg)
	reconcileService := service.NewReconcileService(db, intentRepo, orderRepo)

	srv := server.NewServer(checkoutService, reconcileService, &cfg.PayMongo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	slog.Info("Starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "err", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	slog.Info("Signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "err", err)
	}
}

func setupLogger(cfg config.Log) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
