package uploader

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftmarket/productboard/internal/id/uuid"
	"github.com/craftmarket/productboard/internal/storage/memory"
)

func TestUploadStoresUnderFilesPrefix(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	up := New(blobs, uuid.New(), Config{}, zap.NewNop())

	url, err := up.Upload(context.Background(), []byte("encoded png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "memory://files/"), "url %q", url)
	assert.Equal(t, 1, blobs.Len())
}

func TestUploadIdenticalContentGetsDistinctKeys(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	up := New(blobs, uuid.New(), Config{}, zap.NewNop())

	data := []byte("same bytes")
	first, err := up.Upload(context.Background(), data)
	require.NoError(t, err)
	second, err := up.Upload(context.Background(), data)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, blobs.Len())
}

func TestUploadEmptyBuffer(t *testing.T) {
	t.Parallel()

	up := New(memory.NewBlobStore(), uuid.New(), Config{}, zap.NewNop())
	_, err := up.Upload(context.Background(), nil)
	require.Error(t, err)
}

type failingBlobStore struct{}

func (failingBlobStore) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestUploadStoreFailureSurfacesGenericError(t *testing.T) {
	t.Parallel()

	up := New(failingBlobStore{}, uuid.New(), Config{}, zap.NewNop())
	_, err := up.Upload(context.Background(), []byte("data"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store image")
}
