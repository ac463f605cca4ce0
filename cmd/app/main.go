package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/archiver"
	"github.com/chris/tin/pkg/bootstrap"
	"github.com/chris/tin/pkg/config"
	"github.com/chris/tin/pkg/handlers"
	"github.com/chris/tin/pkg/handlers/respond"
	tinmiddleware "github.com/chris/tin/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	configPath := flag.String("config", "", "Path to the tin.yaml configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("unable to load config, %v", err)
	}

	logger := bootstrap.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("unable to build storage, %v", err)
	}
	defer components.Close()

	if cfg.Archive.Enabled {
		sweeper := archiver.New(components.Store, cfg.Archive.MaxAge, cfg.Archive.Interval, logger)
		go sweeper.Run(ctx)
	}

	// Create our handler
	handler := handlers.NewApiHandler(components.Store, cfg.Archive.MaxAge)

	// Create a new Chi router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(tinmiddleware.NewStructuredLogger(logger))
	router.Use(middleware.Recoverer)

	// Mount our handler on the router
	api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter:       router,
		ErrorHandlerFunc: respond.ParamError,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
