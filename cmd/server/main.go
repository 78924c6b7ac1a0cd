// Package main initializes and starts the document verification server,
// setting up configuration, logging, the database connection, repositories,
// services, handlers, metrics and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/docverify/internal/config"
	"github.com/atinyakov/docverify/internal/db"
	"github.com/atinyakov/docverify/internal/logger"
	"github.com/atinyakov/docverify/internal/metrics"
	"github.com/atinyakov/docverify/internal/repository"
	"github.com/atinyakov/docverify/internal/server/handler/http"
	"github.com/atinyakov/docverify/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	documentRepo := repository.NewPostgresDocumentRepository(postgresDB)
	documentService := service.NewDocumentService(documentRepo,
		service.WithCodeLength(options.CodeLength),
		service.WithMetrics(appMetrics),
		service.WithLogger(zapLogger.Named("documents")),
	)

	documentHandler := &http.DocumentHandler{DocumentService: documentService, Log: zapLogger}
	infoHandler := &http.InfoHandler{DB: documentRepo, Version: cmp.Or(version, "dev"), Log: zapLogger}

	router := http.NewRouter(documentHandler, infoHandler, zapLogger, http.RouterOptions{
		Metrics:    metrics.Handler(prometheus.DefaultGatherer),
		Observer:   appMetrics,
		TrustProxy: options.TrustProxy,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if options.TLSEnabled() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			err = server.ListenAndServeTLS(options.TLSCertFile, options.TLSKeyFile)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
		return
	}
	zapLogger.Info("server stopped")
}
