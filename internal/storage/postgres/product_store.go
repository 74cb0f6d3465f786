// Package postgres provides Postgres-backed persistence for products and
// their review records.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftmarket/productboard/internal/product"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ProductStoreConfig controls the Postgres connection pool used for product
// and review rows. The pool is created once here and reused for every
// request until Close.
type ProductStoreConfig struct {
	DSN             string
	ProductsTable   string
	ReviewsTable    string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// ProductStore reads and writes product/review rows in Postgres.
type ProductStore struct {
	pool          pgxPool
	productsTable string
	reviewsTable  string
}

// NewProductStore creates a Postgres-backed ProductStore using the provided
// config, establishing the shared connection pool.
func NewProductStore(ctx context.Context, cfg ProductStoreConfig) (*ProductStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newProductStore(pool, cfg.ProductsTable, cfg.ReviewsTable)
}

// NewProductStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewProductStoreWithPool(pool pgxPool, productsTable, reviewsTable string) (*ProductStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newProductStore(pool, productsTable, reviewsTable)
}

func newProductStore(pool pgxPool, productsTable, reviewsTable string) (*ProductStore, error) {
	if productsTable == "" {
		productsTable = "products"
	}
	if reviewsTable == "" {
		reviewsTable = "reviews"
	}
	for _, table := range []string{productsTable, reviewsTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &ProductStore{
		pool:          pool,
		productsTable: productsTable,
		reviewsTable:  reviewsTable,
	}, nil
}

// Close releases the underlying pool resources.
func (s *ProductStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateProduct inserts the product row and, when rev is non-nil, the review
// row in the same transaction. A review insert failure rolls the product
// back; no partial state survives.
func (s *ProductStore) CreateProduct(ctx context.Context, p product.Product, rev *product.Review) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("product store is not configured")
	}
	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	productQuery := fmt.Sprintf(`
INSERT INTO %s (
	id,
	image_url,
	product_name,
	product_description,
	price,
	author_id,
	status,
	created_at,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.productsTable)

	if _, err := tx.Exec(ctx, productQuery,
		p.ID,
		p.ImageURL,
		p.Name,
		p.Description,
		p.Price,
		p.AuthorID,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	if rev != nil {
		reviewQuery := fmt.Sprintf(`
INSERT INTO %s (
	id,
	product_id,
	status,
	author_id,
	admin_id,
	created_at,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`, s.reviewsTable)

		if _, err := tx.Exec(ctx, reviewQuery,
			rev.ID,
			rev.ProductID,
			rev.Status,
			rev.AuthorID,
			rev.AdminID,
			rev.CreatedAt,
			rev.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListProducts returns all products ordered by creation time.
func (s *ProductStore) ListProducts(ctx context.Context) ([]product.Product, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("product store is not configured")
	}
	query := fmt.Sprintf(`
SELECT
	id,
	image_url,
	product_name,
	product_description,
	price,
	author_id,
	status,
	created_at,
	updated_at
FROM %s
ORDER BY created_at, id`, s.productsTable)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(
			&p.ID,
			&p.ImageURL,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.AuthorID,
			&p.Status,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
