package product

import (
	"context"
	"io"
	"time"
)

// Store persists products and their review records.
type Store interface {
	// CreateProduct inserts the product and, when rev is non-nil, its
	// pending review record in the same transaction. Either both rows land
	// or neither does.
	CreateProduct(ctx context.Context, p Product, rev *Review) error
	ListProducts(ctx context.Context) ([]Product, error)
}

// BlobStore writes raw artifacts and returns a fetchable URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes review-requested events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record and object-key IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
	NewV4ID() (string, error)
}
