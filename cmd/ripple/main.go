// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ripple starts the Ripple code exploration server.
//
// Ripple accepts uploaded source archives, builds a dependency graph
// over their files and functions, and answers reachability queries
// for interactive "ripple effect" visualization:
//   - Archive upload (.zip, .tar.gz) with safe extraction
//   - Tree-sitter parsing for JavaScript and TypeScript
//   - File/function graph with contains, imports, and calls edges
//   - Downstream/upstream reachability per node
//   - Optional natural-language Q&A backed by Weaviate
//
// Usage:
//
//	go run ./cmd/ripple serve
//	go run ./cmd/ripple serve --port 9090 --config ripple.yaml
//
// With Weaviate (for Q&A):
//
//	WEAVIATE_URL=http://localhost:8081 go run ./cmd/ripple serve
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/ripple/health
//
//	# Upload a project
//	curl -X POST http://localhost:8080/v1/ripple/projects \
//	  -F archive=@myproject.zip -F name=myproject
//
//	# Reachability for one node
//	curl "http://localhost:8080/v1/ripple/projects/<id>/ripple?node=file:src/main.js"
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wavecrest-ai/ripple/services/explorer"
	"github.com/wavecrest-ai/ripple/services/explorer/archive"
	"github.com/wavecrest-ai/ripple/services/explorer/config"
	"github.com/wavecrest-ai/ripple/services/explorer/qa"
	"github.com/wavecrest-ai/ripple/services/telemetry"
)

var (
	flagPort       int
	flagConfigPath string
	flagDebug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ripple",
		Short: "Ripple code exploration server",
		Long:  "Ripple builds dependency graphs over uploaded source trees and serves reachability queries for impact visualization.",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().StringVar(&flagConfigPath, "config", "", "path to a YAML config file")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging and Gin debug mode")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagDebug {
		cfg.Server.Debug = true
	}

	setupLogging(cfg.Server.Debug)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	qaStore, err := qa.New(qa.StoreConfig{
		URL:        cfg.QA.WeaviateURL,
		Vectorizer: cfg.QA.Vectorizer,
	})
	if err != nil {
		return fmt.Errorf("connect weaviate: %w", err)
	}
	if qaStore == nil {
		slog.Info("Q&A disabled, no weaviate URL configured")
	} else {
		schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := qaStore.EnsureSchema(schemaCtx, cfg.QA.Vectorizer)
		cancel()
		if err != nil {
			slog.Warn("weaviate schema setup failed, Q&A will degrade",
				slog.Any("error", err))
		}
	}

	svc, err := explorer.NewService(serviceConfig(cfg), qaStore)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	defer svc.Close()

	router := buildRouter(cfg, svc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting ripple server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadConfig reads the config file when given, otherwise the embedded
// defaults. Environment overrides apply either way.
func loadConfig() (*config.Config, error) {
	if flagConfigPath != "" {
		return config.LoadFile(flagConfigPath)
	}
	return config.Default()
}

// setupLogging installs a JSON slog handler as the default logger.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// serviceConfig maps the file config onto the service's options.
func serviceConfig(cfg *config.Config) explorer.ServiceConfig {
	workDir := cfg.Upload.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "ripple")
	}
	return explorer.ServiceConfig{
		MaxCachedProjects: cfg.Build.MaxCachedProjects,
		MaxUploadBytes:    int64(cfg.Upload.MaxUploadMB) << 20,
		ExtractWorkers:    cfg.Build.ExtractWorkers,
		WorkDir:           workDir,
		UnpackLimits: archive.UnpackLimits{
			MaxFiles:      cfg.Upload.MaxArchiveFiles,
			MaxTotalBytes: int64(cfg.Upload.MaxArchiveMB) << 20,
			MaxFileBytes:  32 << 20,
		},
		BuildMaxNodes: cfg.Build.MaxNodes,
		BuildMaxEdges: cfg.Build.MaxEdges,
		Logger:        slog.Default(),
	}
}

// buildRouter assembles the Gin engine with middleware and routes.
func buildRouter(cfg *config.Config, svc *explorer.Service) *gin.Engine {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("ripple"))
	if cfg.Server.Debug {
		router.Use(gin.Logger())
	}

	if handler := telemetry.MetricsHandler(); handler != nil {
		router.GET("/metrics", gin.WrapH(handler))
	}

	v1 := router.Group("/v1")
	explorer.RegisterRoutes(v1, explorer.NewHandlers(svc))
	return router
}
