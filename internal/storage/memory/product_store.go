package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/craftmarket/productboard/internal/product"
)

// ProductStore provides an in-memory implementation for development/testing.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]product.Product
	reviews  map[string]product.Review
}

// NewProductStore constructs a ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[string]product.Product),
		reviews:  make(map[string]product.Review),
	}
}

// CreateProduct stores the product and, when rev is non-nil, its review
// record. Both land or neither does, matching the transactional contract.
func (s *ProductStore) CreateProduct(_ context.Context, p product.Product, rev *product.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		return errors.New("product id is required")
	}
	if _, exists := s.products[p.ID]; exists {
		return errors.New("product already exists")
	}
	if rev != nil {
		if rev.ID == "" {
			return errors.New("review id is required")
		}
		if _, exists := s.reviews[rev.ID]; exists {
			return errors.New("review already exists")
		}
		s.reviews[rev.ID] = *rev
	}
	s.products[p.ID] = p
	return nil
}

// ListProducts returns all products ordered by creation time.
func (s *ProductStore) ListProducts(_ context.Context) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Reviews returns the stored review records, primarily for tests.
func (s *ProductStore) Reviews() []product.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]product.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close satisfies the lifecycle contract shared with the Postgres store.
func (s *ProductStore) Close() {}
