package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/agenthands/tydrodash/internal/config"
	"github.com/agenthands/tydrodash/internal/core"
	"github.com/agenthands/tydrodash/internal/driver"
	"github.com/agenthands/tydrodash/internal/query"
	"github.com/agenthands/tydrodash/internal/server"
)

func main() {
	configPath := pflag.StringP("config", "c", "config/config.toml", "Path to the TOML configuration file")
	port := pflag.StringP("port", "p", "", "Listen port (overrides config and PORT)")
	envFile := pflag.String("env-file", ".env", "Environment file loaded before configuration")
	pflag.Parse()

	logger := logrus.New()

	if err := godotenv.Load(*envFile); err != nil {
		logger.Debugf("No env file at %s, using process environment", *envFile)
	}

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}
	if err := setupLogger(logger, cfg.Log); err != nil {
		logger.Fatal(err)
	}
	gin.SetMode(cfg.Server.Mode)
	log := logrus.NewEntry(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	warehouse, err := driver.Open(openCtx, cfg.Warehouse, log)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to connect to warehouse: %v", err)
	}
	defer func() {
		if err := warehouse.Close(); err != nil {
			log.WithError(err).Warn("Failed to close warehouse")
		}
	}()

	dashboard := core.NewDashboard(warehouse, query.NewTemplates(templateFS(cfg.Templates, log)), cfg, log)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.NewServer(dashboard, warehouse, log).SetupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("Server stopped")
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}
}

// loadConfig reads path when it exists and falls back to defaults otherwise;
// the environment always wins over both.
func loadConfig(path string, logger *logrus.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Warnf("Config file %s not found, using defaults", path)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func setupLogger(logger *logrus.Logger, cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func templateFS(cfg config.TemplatesConfig, log *logrus.Entry) fs.FS {
	if cfg.Dir == "" {
		return driver.BuiltinTemplates()
	}
	log.WithField("dir", cfg.Dir).Info("Loading report templates from directory")
	return os.DirFS(cfg.Dir)
}
