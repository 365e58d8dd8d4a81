package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tricity/internal/api"
	"tricity/internal/auth"
	"tricity/internal/config"
	"tricity/internal/db"
	"tricity/internal/importer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}
	if err := importer.Migrate(ctx, database.Pool); err != nil {
		log.Fatalf("migrate queue: %v", err)
	}

	queue, err := importer.NewInsertQueue(database.Pool)
	if err != nil {
		log.Fatalf("create queue: %v", err)
	}

	server := &api.Server{
		Database:  database,
		Sessions:  auth.NewManager(cfg.SessionTTL),
		Jobs:      queue,
		UploadDir: cfg.UploadDir,
		Log:       log,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}
