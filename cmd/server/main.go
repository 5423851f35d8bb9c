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

	"github.com/spellground/spellground-go/internal/cards"
	"github.com/spellground/spellground-go/internal/config"
	"github.com/spellground/spellground-go/internal/game"
	"github.com/spellground/spellground-go/internal/recorder"
	"github.com/spellground/spellground-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting spellground server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Card repository: Postgres when configured, the built-in set
	// otherwise.
	var repo cards.Repository
	if cfg.Database.URL != "" {
		connectCtx, connectCancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		pool, err := cards.Connect(connectCtx, cfg.Database.URL, cfg.Database.MaxConns)
		connectCancel()
		if err != nil {
			logger.Warn("card database unavailable, using built-in set", zap.Error(err))
			repo = cards.NewMemoryRepository()
		} else {
			defer pool.Close()
			repo = cards.NewPostgresRepository(pool, logger)
			logger.Info("card database connected",
				zap.Int32("max_conns", cfg.Database.MaxConns),
			)
		}
	} else {
		repo = cards.NewMemoryRepository()
		logger.Info("using built-in card set")
	}

	engine := game.NewEngine(logger)
	engine.SetGameDefaults(cfg.Game.StartingLife, cfg.Game.HandLimit)
	rec := recorder.NewRecorder(engine, logger)
	hub := server.NewHub(engine, repo, cfg.Server, logger)

	engine.SetNotificationHandler(func(n game.Notification) {
		rec.Handle(n)
		hub.Notify(n)
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("websocket server listening", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("websocket server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown did not finish cleanly", zap.Error(err))
	}

	logger.Info("spellground server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
