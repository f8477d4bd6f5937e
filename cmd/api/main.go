package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmills-dev/storyloom/internal/config"
	"github.com/kmills-dev/storyloom/internal/handlers"
	"github.com/kmills-dev/storyloom/internal/logger"
	"github.com/kmills-dev/storyloom/internal/middleware"
	"github.com/kmills-dev/storyloom/internal/services"
	"github.com/kmills-dev/storyloom/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Storyloom API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"session_ttl", cfg.SessionTTL)

	store, err := storage.NewRedisStorage(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	graph := services.NewGraphService(store, logger.ForComponent(log, "graph"))
	sessions := services.NewSessionManager(store, logger.ForComponent(log, "playtest"), cfg.SessionTTL)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sessions.Run(sweepCtx, time.Minute)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	projectHandler := handlers.NewProjectHandler(store, graph, log)
	mux.Handle("/v1/projects", projectHandler)
	mux.Handle("/v1/projects/", projectHandler)

	chapterHandler := handlers.NewChapterHandler(store, graph, log)
	mux.Handle("/v1/chapters", chapterHandler)
	mux.Handle("/v1/chapters/", chapterHandler)

	screenHandler := handlers.NewScreenHandler(store, graph, log)
	mux.Handle("/v1/screens", screenHandler)
	mux.Handle("/v1/screens/", screenHandler)

	replyHandler := handlers.NewReplyHandler(store, graph, log)
	mux.Handle("/v1/replies", replyHandler)
	mux.Handle("/v1/replies/", replyHandler)

	currencyHandler := handlers.NewCurrencyHandler(store, graph, log)
	mux.Handle("/v1/currencies", currencyHandler)
	mux.Handle("/v1/currencies/", currencyHandler)

	referenceHandler := handlers.NewReferenceHandler(store, graph, log)
	mux.Handle("/v1/references", referenceHandler)
	mux.Handle("/v1/references/", referenceHandler)

	settingHandler := handlers.NewSettingHandler(store, graph, log)
	mux.Handle("/v1/settings", settingHandler)
	mux.Handle("/v1/settings/", settingHandler)

	playtestHandler := handlers.NewPlaytestHandler(sessions, log)
	mux.Handle("/v1/playtest", playtestHandler)
	mux.Handle("/v1/playtest/", playtestHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")
	sweepCancel()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
