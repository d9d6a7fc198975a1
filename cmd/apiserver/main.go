// Command apiserver runs the shop's CRUD API service.
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
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/minishop/minishop/internal/apiserver"
	"github.com/minishop/minishop/internal/config"
	"github.com/minishop/minishop/internal/datastore"
	"github.com/minishop/minishop/internal/logging"
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

	store, err := datastore.Open(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.Init {
		if err := store.InitSchema(ctx); err != nil {
			log.Fatalf("init schema: %v", err)
		}
		if err := store.Seed(ctx); err != nil {
			log.Fatalf("seed products: %v", err)
		}
		log.Info("データベースの初期化が完了しました")
	}

	server := &http.Server{
		Addr:         cfg.APIAddr(),
		Handler:      apiserver.NewHandler(store, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("API service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
	log.Info("API service stopped")
}
