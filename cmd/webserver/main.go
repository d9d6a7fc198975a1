// Command webserver runs the browser-facing shop frontend.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/minishop/minishop/internal/apiclient"
	"github.com/minishop/minishop/internal/config"
	"github.com/minishop/minishop/internal/logging"
	"github.com/minishop/minishop/internal/session"
	"github.com/minishop/minishop/internal/webserver"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New("info", "text").Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	renderer, err := webserver.NewTemplateRenderer()
	if err != nil {
		log.Fatalf("load templates: %v", err)
	}

	creds, err := webserver.DefaultCredentials()
	if err != nil {
		log.Fatalf("build credentials: %v", err)
	}

	sessions := session.NewMemoryStore()
	api := apiclient.New(cfg.API.BaseURL, cfg.APITimeout())

	server := &http.Server{
		Addr:         cfg.WebAddr(),
		Handler:      webserver.NewHandler(sessions, api, renderer, creds, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("web frontend listening on %s (API at %s)", server.Addr, cfg.API.BaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
	log.Info("web frontend stopped")
}
