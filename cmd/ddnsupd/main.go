package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ddnsup/internal/dns"
	"ddnsup/internal/logger"
	"ddnsup/internal/server/api"
	"ddnsup/internal/server/config"
	"ddnsup/internal/version"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", config.ConfigPathFromEnv(), "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		info := version.GetInfo()
		fmt.Println(info.String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(2)
	}
	log = log.Named("server")
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	// Initialize DNS backend; requests report missing configuration without one
	var backend dns.Backend
	if cfg.HasBackend() {
		backend, err = cfg.NewBackend(log)
		if err != nil {
			log.Fatal("Failed to initialize DNS backend", zap.Error(err))
		}
	} else {
		log.Warn("No DNS backend configured")
	}
	if cfg.UpdateToken == "" {
		log.Warn("No update token configured")
	}

	// Initialize router
	router := api.NewRouter(cfg, backend, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in background
	go func() {
		log.Info("Starting server", zap.String("address", cfg.Listen))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for signal
	sig := <-sigChan
	log.Info("Received signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
