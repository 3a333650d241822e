// Storefront daemon - holds one shopper session and serves it over a JSON
// API and MCP (streamable HTTP).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/rest"
	"storefront/internal/session"
	"storefront/internal/storefront"
	"storefront/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := initLogger()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("backend_host", cfg.BackendHost()),
		slog.String("endpoint", cfg.Endpoint()),
		slog.String("tls_fingerprint", cfg.Backend.TLSFingerprint),
		slog.String("session_file", cfg.SessionFile),
	)

	client, err := rest.New(rest.Config{
		Endpoint:  cfg.Endpoint(),
		Timeout:   cfg.HTTPTimeout,
		Transport: transport.New(cfg.Backend.TLSFingerprint, cfg.HTTPTimeout),
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	sess := session.New(session.NewFileStore(cfg.SessionFile, logger))
	shop := storefront.New(client, sess, logger, storefront.Options{SearchQuiet: cfg.SearchDebounce})
	defer shop.Close()

	// A failed warm-up is not fatal: every tool refetches what it needs.
	if _, err := shop.Enter(ctx); err != nil {
		logger.Warn("initial load incomplete", slog.String("error", err.Error()))
	}

	h := handler.New(shop, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Request id outermost so recovery and access logs can both carry it.
	httpHandler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
			slog.Bool("logged_in", sess.LoggedIn()),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON, development uses text.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
