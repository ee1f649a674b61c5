// Command searchstub runs the local stub of the remote search service:
// the streaming, fallback, and action-suggestion endpoints plus /metrics.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/config"
	logpkg "github.com/pelorus-marine/spyglass/internal/logger"
	"github.com/pelorus-marine/spyglass/internal/metrics"
	"github.com/pelorus-marine/spyglass/internal/stubserver"
	"github.com/pelorus-marine/spyglass/internal/version"
)

func main() {
	addr := flag.String("addr", ":8091", "listen address")
	flag.Parse()

	env := config.GetEnv()
	logger, err := logpkg.New(env)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting search stub",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("addr", *addr),
	)

	metrics.RegisterSearchMetrics()

	srv := &http.Server{
		Addr:        *addr,
		Handler:     stubserver.New(logger).Router(),
		ReadTimeout: 10 * time.Second,
		// No write timeout: the stream endpoint holds the response open.
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}
