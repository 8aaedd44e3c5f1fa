package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-notes-platform/internal/blobstore"
	"smart-notes-platform/internal/config"
	"smart-notes-platform/internal/index"
	"smart-notes-platform/internal/logger"
	"smart-notes-platform/internal/queue"
	"smart-notes-platform/internal/telemetry"
	"smart-notes-platform/middleware"
	"smart-notes-platform/routes"
	"smart-notes-platform/services"

	"github.com/gin-gonic/gin"
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
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	if cfg.OTELEnabled {
		shutdown, err := telemetry.InitTracer(cfg, "smart-notes-platform")
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatal("Failed to init blob storage:", err)
	}

	store := index.NewMongoStore(mongoClient, cfg.DBName)

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to build queue Redis options:", err)
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	enqueuer := queue.NewAsynqEnqueuer(asynqClient, cfg.MaxDeliveryCount, cfg.VisibilityTimeout)

	// Background repair loop for store/queue divergence.
	reconciler := services.NewReconciler(store, blobs, enqueuer, cfg.UploadGracePeriod)
	if err := reconciler.Start(cfg.ReconcileInterval); err != nil {
		log.Fatal("Failed to start reconciler:", err)
	}
	defer reconciler.Stop()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	if cfg.OTELEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := mongoClient.Ping(ctx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unready", "mongo": err.Error()})
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unready", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	routes.SetupDocumentRoutes(router, cfg, store, blobs, enqueuer)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func newBlobStore(cfg *config.Config) (blobstore.Store, error) {
	if cfg.BlobBackend == "gcs" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return blobstore.NewGCSStore(ctx, cfg.GCSBucket)
	}
	return blobstore.NewLocalStore(cfg.FileStorageDir)
}
