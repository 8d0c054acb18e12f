package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/facematch/internal/storage"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Provider
	FaceProvider     string `envconfig:"FACE_PROVIDER" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Facenet"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"ssd"`
	MockFaceCount    int    `envconfig:"MOCK_FACE_COUNT" default:"1"`

	// Models
	ModelsPath string `envconfig:"MODELS_PATH" default:"./models"`

	// Matching
	MatchThreshold    float64       `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	DetectionTimeout  time.Duration `envconfig:"DETECTION_TIMEOUT" default:"0s"`
	MaxFrameDimension int           `envconfig:"MAX_FRAME_DIMENSION" default:"1024"`

	// Camera
	CameraType string `envconfig:"CAMERA_TYPE" default:"none"`
	CameraURL  string `envconfig:"CAMERA_URL"`
	CameraDir  string `envconfig:"CAMERA_DIR"`

	// Storage
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	StorageDir     string `envconfig:"STORAGE_DIR" default:"./data"`
	RegistryKey    string `envconfig:"REGISTRY_KEY" default:"users"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Prefix       string `envconfig:"S3_PREFIX"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	AWSRegion      string `envconfig:"AWS_REGION" default:"us-east-1"`
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	switch c.FaceProvider {
	case "deepface", "mock":
	default:
		errs = append(errs, fmt.Errorf("FACE_PROVIDER must be deepface or mock, got %q", c.FaceProvider))
	}

	if c.MatchThreshold <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be positive, got %v", c.MatchThreshold))
	}
	if c.DetectionTimeout < 0 {
		errs = append(errs, errors.New("DETECTION_TIMEOUT must not be negative"))
	}
	if c.MaxFrameDimension < 0 {
		errs = append(errs, errors.New("MAX_FRAME_DIMENSION must not be negative"))
	}
	if strings.TrimSpace(c.RegistryKey) == "" {
		errs = append(errs, errors.New("REGISTRY_KEY is required"))
	}

	switch c.CameraType {
	case "none", "":
	case "snapshot":
		if c.CameraURL == "" {
			errs = append(errs, errors.New("CAMERA_URL is required for snapshot camera"))
		}
	case "directory":
		if c.CameraDir == "" {
			errs = append(errs, errors.New("CAMERA_DIR is required for directory camera"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CAMERA_TYPE %q", c.CameraType))
	}

	switch c.StorageBackend {
	case storage.BackendMemory:
	case storage.BackendFile:
		if c.StorageDir == "" {
			errs = append(errs, errors.New("STORAGE_DIR is required for file storage"))
		}
	case storage.BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case storage.BackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for s3 storage"))
		}
	case storage.BackendMinio:
		if c.S3Bucket == "" || c.MinioEndpoint == "" {
			errs = append(errs, errors.New("S3_BUCKET and MINIO_ENDPOINT are required for minio storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	return errors.Join(errs...)
}

// StorageConfig maps the environment onto storage.Open settings.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend:        c.StorageBackend,
		Dir:            c.StorageDir,
		DatabaseURL:    c.DatabaseURL,
		Bucket:         c.S3Bucket,
		Prefix:         c.S3Prefix,
		Region:         c.AWSRegion,
		Endpoint:       c.S3Endpoint,
		MinioEndpoint:  c.MinioEndpoint,
		MinioAccessKey: c.MinioAccessKey,
		MinioSecretKey: c.MinioSecretKey,
		MinioUseSSL:    c.MinioUseSSL,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
