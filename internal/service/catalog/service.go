// Package catalog serves the product list backing the bot's option 2 and
// the /products HTTP surface.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elhueso/huesobot/internal/model/catalog"
)

// CacheTTL bounds how long a fetched product list is reused.
const CacheTTL = 24 * time.Hour

// Service fetches products from Postgres and caches them in memory.
type Service struct {
	pool *pgxpool.Pool

	mu        sync.Mutex
	cached    []catalog.Product
	fetchedAt time.Time
}

// NewService connects to the products database. An empty databaseURL is
// not an error: the service stays up and reports an empty catalog, so the
// bot keeps answering.
func NewService(ctx context.Context, databaseURL string) (*Service, error) {
	if databaseURL == "" {
		log.Printf("[catalog] DATABASE_URL not set, products will be unavailable")
		return &Service{}, nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("catalog: connect: %w", err)
	}

	log.Printf("[catalog] postgres pool initialized")
	return &Service{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Service) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Products returns the catalog, serving the cached copy while it is fresh.
func (s *Service) Products(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.fetchedAt) < CacheTTL {
		products := s.cached
		s.mu.Unlock()
		return products, nil
	}
	s.mu.Unlock()

	products, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = products
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return products, nil
}

// ClearCache drops the cached product list so the next read hits the
// database.
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	log.Printf("[catalog] product cache cleared")
}

func (s *Service) fetch(ctx context.Context) ([]catalog.Product, error) {
	if s.pool == nil {
		return []catalog.Product{}, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT title, prices FROM products ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		var (
			title     string
			rawPrices []byte
		)
		if err := rows.Scan(&title, &rawPrices); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}

		var prices catalog.Prices
		if err := json.Unmarshal(rawPrices, &prices); err != nil {
			return nil, fmt.Errorf("catalog: decode prices for %q: %w", title, err)
		}

		products = append(products, catalog.Product{
			Title:     title,
			ListPrice: catalog.FormatPrice(prices.List),
			SalePrice: catalog.FormatPrice(prices.Sale),
			ListRaw:   prices.List,
			SaleRaw:   prices.Sale,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read products: %w", err)
	}

	return products, nil
}
