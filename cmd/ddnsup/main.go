package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ddnsup/internal/config"
	"ddnsup/internal/logger"
	"ddnsup/internal/notify"
	"ddnsup/internal/provider"
	"ddnsup/internal/state"
	"ddnsup/internal/updater"
	"ddnsup/internal/version"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitOK = iota
	exitProviderFailure
	exitConfigError
	exitStateWriteFailure
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := config.NewFlagSet(config.AppName)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitConfigError
	}

	// Show version if requested
	if showVersion, _ := fs.GetBool("version"); showVersion {
		fmt.Println(version.GetInfo().String())
		return exitOK
	}

	// Load configuration
	cfg, err := config.Load(fs, args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitConfigError
	}

	// Initialize logger
	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exitConfigError
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	logSources(log, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize state store
	backend, err := state.Open(cfg.LastUpdateFile)
	if err != nil {
		log.Error("Failed to open last update store", zap.Error(err))
		return exitConfigError
	}
	store := state.NewStore(backend, log)
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close last update store", zap.Error(err))
		}
	}()

	client, err := provider.NewClient(cfg.URL, log, provider.WithTimeout(cfg.Timeout))
	if err != nil {
		log.Error("Invalid update URL", zap.Error(err))
		return exitConfigError
	}

	var opts []updater.Option
	if cfg.Notify.Enabled {
		nm, err := notify.NewManager(&cfg.Notify, log)
		if err != nil {
			log.Error("Failed to initialize notifications", zap.Error(err))
			return exitConfigError
		}
		opts = append(opts, updater.WithNotifier(nm))
	}

	u := updater.New(client, store, log, opts...)
	_, err = u.Run(ctx, updater.Request{
		Hostname:    cfg.Hostname,
		Token:       cfg.Token,
		OldAddress:  address(cfg.OldIPAddress),
		NewAddress:  address(cfg.NewIPAddress),
		Force:       cfg.Force,
		MaxInterval: cfg.MaxIntervalDuration(),
	})

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, updater.ErrStateWrite):
		return exitStateWriteFailure
	default:
		return exitProviderFailure
	}
}

func address(s *string) updater.Address {
	if s == nil {
		return updater.NoAddress
	}
	return updater.AddressOf(*s)
}

func logSources(log *zap.Logger, cfg *config.Config) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := make([]zap.Field, 0, len(cfg.Sources)+1)
	fields = append(fields, zap.String("config_file", cfg.ConfigFile))
	for key, src := range cfg.Sources {
		fields = append(fields, zap.Stringer(key, src))
	}
	log.Debug("Resolved configuration", fields...)
}
