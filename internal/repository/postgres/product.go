package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/modaversa/storefront/internal/domain"
	"github.com/modaversa/storefront/pkg/database"
	apperrors "github.com/modaversa/storefront/pkg/errors"
)

const productColumns = "id, name, slug, description, brand, category, status, base_price, currency, image_url, created_at, updated_at"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID retrieves a product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Brand, &p.Category,
		&p.Status, &p.BasePrice, &p.Currency, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// GetVariant retrieves a variant by id, scoped to its product so a variant id
// from a different product cannot be attached.
func (r *ProductRepository) GetVariant(ctx context.Context, productID, variantID string) (*domain.ProductVariant, error) {
	query := `
		SELECT id, product_id, sku, size, color, price, created_at
		FROM product_variants
		WHERE id = $1 AND product_id = $2`

	var v domain.ProductVariant
	err := r.pool.QueryRow(ctx, query, variantID, productID).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Size, &v.Color, &v.Price, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product variant", variantID)
		}
		return nil, fmt.Errorf("get product variant: %w", err)
	}

	return &v, nil
}

// List returns active products, newest first, with the total count.
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]domain.Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE status = $1`, domain.ProductStatusActive,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, productColumns)

	rows, err := r.pool.Query(ctx, query, domain.ProductStatusActive, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Brand, &p.Category,
			&p.Status, &p.BasePrice, &p.Currency, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}
