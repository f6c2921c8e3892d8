package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"album-grid/internal/common/logging"
	"album-grid/internal/config"
	"github.com/joho/godotenv"
)

// Run loads configuration, starts the server and blocks until SIGINT or SIGTERM
func Run() error {
	// A missing .env file is fine
	_ = godotenv.Load()

	if err := logging.InitGlobalLogger(); err != nil {
		return err
	}
	defer logging.MustSync()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logging.Error("Invalid configuration", err)
		return err
	}

	application, err := New(cfg)
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}

	srv, err := application.RunServer()
	if err != nil {
		application.Cleanup()
		logging.Error("Failed to start server", err)
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logging.Info("Shutting down server", logging.Field{Key: "signal", Value: sig.String()})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.ShutdownServer(ctx, srv); err != nil {
		logging.Error("Server forced to shutdown", err)
		return err
	}

	logging.Info("Server exited")
	return nil
}
