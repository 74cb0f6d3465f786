// Package uploader assigns object keys to encoded images and stores them in
// the configured blob store.
package uploader

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/craftmarket/productboard/internal/product"
	"github.com/craftmarket/productboard/internal/telemetry"
)

// Config controls Uploader behavior.
type Config struct {
	// Prefix is the object-key namespace, "files" by convention.
	Prefix      string
	ContentType string
}

// Uploader stores encoded image buffers under fresh UUID keys. Keys are
// never reused and identical content is never deduplicated: two uploads of
// the same bytes get distinct locations.
type Uploader struct {
	blobs  product.BlobStore
	idGen  product.IDGenerator
	cfg    Config
	logger *zap.Logger
}

// New constructs an Uploader.
func New(blobs product.BlobStore, idGen product.IDGenerator, cfg Config, logger *zap.Logger) *Uploader {
	if cfg.Prefix == "" {
		cfg.Prefix = "files"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "image/png"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		blobs:  blobs,
		idGen:  idGen,
		cfg:    cfg,
		logger: logger,
	}
}

// Upload stores the buffer under files/<uuid-v4> and returns the resolvable
// location. Failures are logged and surfaced as a single wrapped error; the
// caller does not retry.
func (u *Uploader) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload buffer is empty")
	}
	key, err := u.idGen.NewV4ID()
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	objectPath := path.Join(u.cfg.Prefix, key)

	url, err := u.blobs.PutObject(ctx, objectPath, u.cfg.ContentType, bytes.NewReader(data))
	if err != nil {
		telemetry.ObserveUpload("error", 0)
		u.logger.Error("image upload failed",
			zap.String("object_path", objectPath),
			zap.Error(err),
		)
		return "", fmt.Errorf("store image: %w", err)
	}

	telemetry.ObserveUpload("ok", len(data))
	u.logger.Info("image uploaded",
		zap.String("object_path", objectPath),
		zap.String("url", url),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}
