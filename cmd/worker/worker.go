package main

import (
	"context"
	"log"
	"time"

	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/config"
	"smart-notes-platform/internal/extract"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/internal/queue"

	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatal("Failed to init blob storage:", err)
	}

	store := index.NewMongoStore(mongoClient, cfg.DBName)
	registry := extract.NewRegistry(cfg.OCRLanguage, cfg.OCRTimeout)
	processor := queue.NewTaskProcessor(store, blobs, registry, cfg.MaxDeliveryCount)

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to build queue Redis options:", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				queue.QueueDocuments: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task delivery failed", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskDocumentProcess, processor.HandleDocumentProcess)

	log.Printf("Starting document worker (concurrency=%d)", cfg.WorkerConcurrency)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}

func newBlobStore(cfg *config.Config) (blobstore.Store, error) {
	if cfg.BlobBackend == "gcs" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return blobstore.NewGCSStore(ctx, cfg.GCSBucket)
	}
	return blobstore.NewLocalStore(cfg.FileStorageDir)
}
