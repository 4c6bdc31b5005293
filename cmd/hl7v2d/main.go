// Package main runs the hl7v2 HTTP API.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofhir/hl7v2/api"
	"github.com/gofhir/hl7v2/pkg/config"
	"github.com/gofhir/hl7v2/pkg/logger"
)

func main() {
	configFile := flag.String("config", "", "TOML configuration file")
	addr := flag.String("addr", "", "Listen address (overrides the config file)")
	flag.Parse()

	log := logger.New(os.Stderr, logger.LevelInfo)

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Error("invalid configuration: %v", err)
			os.Exit(1)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log.SetLevel(cfg.LogLevel)

	srv := api.NewServer(cfg, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     log.Named("http").StdLogger(logger.LevelError),
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

	log.Info("starting hl7v2d on %s", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error: %v", err)
		os.Exit(1)
	}
}
