package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3Store_Get(t *testing.T) {
	t.Run("existing object", func(t *testing.T) {
		client := new(MockS3Client)
		store := NewS3Store(client, "faces", "demo")

		client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return *in.Bucket == "faces" && *in.Key == "demo/users.json"
		})).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(bytes.NewReader([]byte(`[]`))),
		}, nil).Once()

		value, err := store.Get(context.Background(), "users")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(value))
		client.AssertExpectations(t)
	})

	t.Run("missing object", func(t *testing.T) {
		client := new(MockS3Client)
		store := NewS3Store(client, "faces", "demo")

		client.On("GetObject", mock.Anything, mock.Anything).
			Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.Get(context.Background(), "users")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other error", func(t *testing.T) {
		client := new(MockS3Client)
		store := NewS3Store(client, "faces", "demo")
		boom := errors.New("throttled")

		client.On("GetObject", mock.Anything, mock.Anything).
			Return(nil, boom).Once()

		_, err := store.Get(context.Background(), "users")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestS3Store_Set(t *testing.T) {
	client := new(MockS3Client)
	store := NewS3Store(client, "faces", "")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "faces" &&
			*in.Key == "users.json" &&
			*in.ContentLength == 2 &&
			*in.ContentType == "application/json"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	err := store.Set(context.Background(), "users", []byte(`[]`))
	assert.NoError(t, err)
	client.AssertExpectations(t)
}
