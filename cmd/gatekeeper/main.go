package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/astro-web3/authz-gatekeeper/internal/config"
	httptransport "github.com/astro-web3/authz-gatekeeper/internal/transport/http"
	"github.com/astro-web3/authz-gatekeeper/pkg/logger"
	"github.com/astro-web3/authz-gatekeeper/pkg/otel"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	srv, err := httptransport.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrChan := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server",
			slog.String("addr", cfg.Server.Addr),
			slog.String("mode", cfg.Server.Mode),
			slog.String("gatekeeper_url", cfg.Gatekeeper.URL),
		)
		if listenErr := srv.ListenAndServe(); listenErr != nil &&
			!errors.Is(listenErr, http.ErrServerClosed) {
			serverErrChan <- listenErr
		}
	}()

	select {
	case <-ctx.Done():
		logger.InfoContext(context.Background(), "shutting down server")
	case serverErr := <-serverErrChan:
		logger.ErrorContext(context.Background(), "server error, shutting down", slog.String("error", serverErr.Error()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.ErrorContext(shutdownCtx, "server forced to shutdown", slog.String("error", shutdownErr.Error()))
	} else {
		logger.InfoContext(shutdownCtx, "server stopped gracefully")
	}

	if shutdownErr := otel.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.ErrorContext(shutdownCtx, "failed to shutdown tracer provider", slog.String("error", shutdownErr.Error()))
	}
}
