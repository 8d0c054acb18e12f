package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/capture"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
	"github.com/saturnino-fabrica-de-software/facematch/internal/models"
	"github.com/saturnino-fabrica-de-software/facematch/internal/registry"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
	"github.com/saturnino-fabrica-de-software/facematch/internal/storage"
	"github.com/saturnino-fabrica-de-software/facematch/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Facematch API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.FaceProvider),
		slog.String("storage", cfg.StorageBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Registry
	if cfg.StorageBackend == storage.BackendPostgres {
		if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	store, closeStore, err := storage.Open(ctx, cfg.StorageConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStore()

	reg := registry.New(store, cfg.RegistryKey, logger)
	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if watcher, ok := store.(storage.Watcher); ok {
		err := watcher.Watch(ctx, cfg.RegistryKey, func() {
			if err := reg.Reload(ctx); err != nil {
				logger.Warn("registry reload failed", slog.Any("error", err))
			}
		})
		if err != nil {
			logger.Warn("registry watch disabled", slog.Any("error", err))
		}
	}

	// Models load in the background; detections answer MODELS_NOT_LOADED until ready
	specs, err := models.DefaultSpecs()
	if err != nil {
		return fmt.Errorf("failed to read model list: %w", err)
	}
	loader := models.NewLoader(models.NewSource(cfg.ModelsPath), specs, logger)
	go func() {
		_ = loader.Load(ctx)
	}()

	// Camera
	camera := capture.NewCamera(cameraSource(cfg), logger)
	camera.Start(ctx)
	defer func() {
		if err := camera.Close(); err != nil {
			logger.Warn("camera close failed", slog.Any("error", err))
		}
	}()

	detector, err := face.NewFaceDetector(cfg)
	if err != nil {
		return fmt.Errorf("failed to create face detector: %w", err)
	}

	hub := ws.NewHub(logger)

	faceService := service.NewFaceService(reg, detector, camera, loader, logger).
		WithThreshold(cfg.MatchThreshold).
		WithDetectionTimeout(cfg.DetectionTimeout).
		WithMaxFrameDimension(cfg.MaxFrameDimension).
		WithAudit(audit.NewSlogLogger(logger), cfg.FaceProvider).
		WithEvents(hub)

	router := api.NewRouter(logger, &api.Dependencies{
		FaceService: faceService,
		Models:      loader,
		Camera:      camera,
		Hub:         hub,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}

// cameraSource maps CAMERA_TYPE onto a frame source; nil means no camera.
func cameraSource(cfg *config.Config) capture.Source {
	switch cfg.CameraType {
	case "snapshot":
		return capture.NewSnapshotSource(cfg.CameraURL, 5*time.Second)
	case "directory":
		return capture.NewDirectorySource(cfg.CameraDir)
	default:
		return nil
	}
}
