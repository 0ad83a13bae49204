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

	"github.com/Blakeem/mdstore/internal/addressing"
	"github.com/Blakeem/mdstore/internal/api"
	"github.com/Blakeem/mdstore/internal/config"
	"github.com/Blakeem/mdstore/internal/docstore"
	"github.com/Blakeem/mdstore/internal/metrics"
	"github.com/Blakeem/mdstore/internal/mutate"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	src, err := docstore.NewSource(cfg.DocsRoot)
	if err != nil {
		log.Error("invalid docs root", "error", err)
		os.Exit(1)
	}

	met := metrics.New(prometheus.DefaultRegisterer)

	// Document cache, address cache and the change notification between them.
	docs := docstore.NewManager(src, cfg.DocCacheCapacity, cfg.MaxHeadings, log, met)
	addrCache := addressing.NewCache(cfg.AddrCacheCapacity, met)
	docs.Subscribe(func(path string) { addrCache.InvalidateDocument(path) })

	resolver := addressing.NewResolver(addrCache, docs)
	engine := mutate.NewEngine(cfg.MaxHeadings)

	srv := api.NewServer(docs, resolver, engine, met, prometheus.DefaultGatherer, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
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

	log.Info("starting mdstore", "port", cfg.Port, "docs_root", cfg.DocsRoot)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
