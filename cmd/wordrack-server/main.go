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

	"github.com/okvist/wordrack/internal/config"
	"github.com/okvist/wordrack/internal/gamebuilder"
	"github.com/okvist/wordrack/internal/obslog"
	"github.com/okvist/wordrack/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	deps, err := gamebuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("init_failed", zap.Error(err))
	}

	srv := server.New(deps.Service, server.Config{}, logger)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	deps.Janitor.Start()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("listen_failed", zap.Error(err))
	}

	// Stop accepting, then close the websockets the HTTP shutdown
	// cannot reach, then the background workers and stores.
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http_shutdown", zap.Error(err))
	}
	cancel()
	srv.Shutdown()
	deps.Janitor.Stop()
	if err := deps.Close(); err != nil {
		logger.Warn("close_deps", zap.Error(err))
	}
	logger.Info("server_stopped")
}
