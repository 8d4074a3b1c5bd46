package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photopass/internal/config"
	"photopass/internal/events/kafka"
	"photopass/internal/events/noop"
	"photopass/internal/handler"
	"photopass/internal/locator"
	"photopass/internal/metrics"
	"photopass/internal/middleware"
	"photopass/internal/port"
	"photopass/internal/probe"
	"photopass/internal/router"
	"photopass/internal/service"
	miniostorage "photopass/internal/storage/minio"
	s3storage "photopass/internal/storage/s3"
)

// @title PhotoPass API
// @version 1.0
// @description Upload portrait images and poll for their converted passport photos.
// @BasePath /api
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize storage
	storage, err := newObjectStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Provider, err)
	}

	// Initialize event publisher
	var events port.EventPublisher
	if cfg.Kafka.Enabled() {
		events = kafka.NewPublisher(&cfg.Kafka)
		log.Printf("Publishing upload events to kafka topic %s", cfg.Kafka.Topic)
	} else {
		events = noop.NewNoopPublisher()
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Initialize services
	loc := locator.New(cfg.ConvertedURLBase())
	uploadSvc := service.NewUploadService(storage, events, service.NewKeyGenerator(nil), &cfg.S3, &cfg.Upload, collector)
	conversionSvc := service.NewConversionPoller(
		probe.NewStorageProber(storage, cfg.S3.ConvertedBucket),
		loc,
		service.PollConfig{
			Interval:     cfg.Poll.Interval,
			MaxAttempts:  cfg.Poll.MaxAttempts,
			ProbeTimeout: cfg.Poll.ProbeTimeout,
		},
		collector,
	)

	// Initialize handlers
	uploadH := handler.NewUploadHandler(uploadSvc, &cfg.Upload)
	conversionH := handler.NewConversionHandler(conversionSvc)
	healthH := handler.NewHealthHandler(handler.PingerFunc(func(ctx context.Context) error {
		return storage.Ping(ctx, cfg.S3.UploadBucket)
	}))

	cors, err := middleware.CORS(cfg.CORS.AllowedOrigins, router.UploadPath)
	if err != nil {
		return fmt.Errorf("invalid CORS configuration: %w", err)
	}
	opts := router.Options{
		CORS:    cors,
		Swagger: cfg.Server.Environment != "production",
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		opts.MetricsPath = cfg.Metrics.Path
	}

	// Setup router
	r := router.Setup(uploadH, conversionH, healthH, opts)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s (storage=%s, converted=%s)", cfg.Server.Port, cfg.Storage.Provider, loc.Base())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server failed: %v", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return srv.Shutdown(ctx)
			},
			"event-publisher": func(ctx context.Context) error {
				return events.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	if exitCode != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", exitCode)
	}
	return nil
}

func newObjectStorage(cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case config.StorageProviderMinio:
		return miniostorage.NewMinioClient(&cfg.S3, &cfg.Minio)
	default:
		return s3storage.NewS3Client(&cfg.S3)
	}
}
