package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMinio    = "minio"
)

// Config selects and configures a storage backend
type Config struct {
	Backend string

	// file
	Dir string

	// postgres
	DatabaseURL string

	// s3 and minio
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string

	// minio
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
}

// Open builds the configured store. The returned cleanup func releases any
// connections the store holds and is always safe to call.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), noop, nil

	case BackendFile:
		store, err := NewFileStore(cfg.Dir, WithLogger(logger))
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		return NewPostgresStore(pool), pool.Close, nil

	case BackendS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, noop, fmt.Errorf("load AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
		return NewS3Store(client, cfg.Bucket, cfg.Prefix), noop, nil

	case BackendMinio:
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("create minio client: %w", err)
		}
		return NewMinioStore(client, cfg.Bucket, cfg.Prefix), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage backend: %s (supported: %s, %s, %s, %s, %s)",
			cfg.Backend, BackendMemory, BackendFile, BackendPostgres, BackendS3, BackendMinio)
	}
}
