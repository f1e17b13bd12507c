package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autonotes/backend/internal/api"
	"github.com/autonotes/backend/internal/config"
	"github.com/autonotes/backend/internal/engine"
	"github.com/autonotes/backend/internal/fetcher"
	"github.com/autonotes/backend/internal/logging"
	"github.com/autonotes/backend/internal/resources"
)

func main() {
	// 1. Config
	if err := config.LoadDotEnv(".env"); err != nil {
		logrus.WithError(err).Warn("Failed to load .env file")
	}
	cfg := config.Load()

	// 2. Logging
	logger := logging.New(cfg.Log, os.Stdout)
	entry := logger.WithField("service", "autonotes-api")
	entry.Info("Starting AutoNotes analysis service")

	// 3. Linguistic resources
	res, err := resources.Load(cfg.Analysis.Language)
	if err != nil {
		entry.Fatalf("Failed to load linguistic resources: %v", err)
	}
	entry.WithFields(logrus.Fields{
		"language":  res.Language(),
		"stopwords": res.StopwordCount(),
	}).Info("Linguistic resources loaded")

	// 4. Engine
	eng := engine.NewEngine(cfg, entry.WithField("component", "engine"), res)

	// 5. Page fetcher
	var pages api.PageFetcher
	if cfg.Fetcher.Enabled {
		pages = fetcher.NewFetcher(cfg.Fetcher, entry.WithField("component", "fetcher"))
	}

	// 6. API Server
	server := api.NewServer(eng, pages, cfg.Server, entry.WithField("component", "api"))
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		entry.Infof("AutoNotes API ready on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			entry.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	entry.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		entry.WithError(err).Error("Graceful shutdown failed")
	}
}
