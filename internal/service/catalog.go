package service

import (
	"context"
	"log/slog"

	"github.com/modaversa/storefront/internal/domain"
	"github.com/modaversa/storefront/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogService exposes read-only catalog lookups.
type CatalogService struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   logger,
	}
}

// ListProducts returns a page of active products and the total count. Limits
// outside [1, maxPageSize] are clamped.
func (s *CatalogService) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, int, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.products.List(ctx, limit, offset)
}

// GetProduct returns one product by id.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}
