package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// MinioStore keeps each key as an object in a MinIO (or S3-compatible) bucket
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore creates a MinIO-backed store.
func NewMinioStore(client *minio.Client, bucket, prefix string) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *MinioStore) objectKey(key string) string {
	return path.Join(s.prefix, key+fileExtension)
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, minioError(err, s.objectKey(key))
	}
	defer func() {
		_ = obj.Close()
	}()

	// GetObject is lazy; the missing-key error surfaces on first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, minioError(err, s.objectKey(key))
	}
	return data, nil
}

func (s *MinioStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(key), bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", s.objectKey(key), err)
	}
	return nil
}

func minioError(err error, objectKey string) error {
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
		return ErrNotFound
	}
	return fmt.Errorf("get object %s: %w", objectKey, err)
}

var _ Store = (*MinioStore)(nil)
