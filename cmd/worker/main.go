package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tricity/internal/config"
	"tricity/internal/db"
	"tricity/internal/devices"
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

	worker := importer.NewWorker(devices.NewStore(database.Pool), cfg.ImportBatchSize, log)

	queue, err := importer.NewWorkerQueue(database.Pool, worker, importer.QueueConfig{
		Workers:     cfg.ImportWorkers,
		JobTimeout:  cfg.ImportJobTimeout,
		MaxAttempts: cfg.ImportMaxAttempts,
	}, log)
	if err != nil {
		log.Fatalf("create queue: %v", err)
	}

	if err := queue.Start(ctx); err != nil {
		log.Fatalf("start queue: %v", err)
	}
	log.Infof("import worker running (%d workers, batch size %d)", cfg.ImportWorkers, cfg.ImportBatchSize)

	<-ctx.Done()
	stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := queue.Stop(stopCtx); err != nil {
		log.Errorf("queue stop: %v", err)
	}
}
