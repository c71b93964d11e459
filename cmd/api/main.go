package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/api"
	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()

	// Initialize collector
	coll, err := collector.NewGitHubCollector(collector.Options{
		BaseURL:        cfg.GitHubAPIURL,
		APIVersion:     cfg.GitHubAPIVersion,
		UserAgent:      cfg.UserAgent,
		RequestsPerSec: cfg.RequestsPerSec,
		Logger:         logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create GitHub collector")
	}

	// Initialize handler
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(coll, aggregator.NewSyntheticSource(), logger, cfg.PublicURL)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).WithField("github", cfg.GitHubAPIURL).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
