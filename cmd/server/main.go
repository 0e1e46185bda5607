package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avelichko/studycheck/internal/api"
	"github.com/avelichko/studycheck/internal/auth"
	"github.com/avelichko/studycheck/internal/config"
	"github.com/avelichko/studycheck/internal/objstore"
	"github.com/avelichko/studycheck/internal/ocr"
	"github.com/avelichko/studycheck/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Error("init token manager", "error", err)
		os.Exit(1)
	}

	// Object storage is optional: without it analyses still run, only the
	// stored PDF reports are skipped.
	var objects api.ObjectStore
	objClient, err := objstore.New(ctx, objstore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
	})
	if err != nil {
		log.Warn("object storage unavailable, reports will not be stored", "error", err)
	} else {
		objects = objClient
	}

	var ocrClient api.OCRClient
	if cfg.OCRServiceURL != "" {
		ocrClient = ocr.NewClient(cfg.OCRServiceURL, cfg.OCRAPIKey)
	}

	registry := prometheus.NewRegistry()
	srv := api.NewServer(store, tokens, objects, ocrClient, registry, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting studycheck", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
