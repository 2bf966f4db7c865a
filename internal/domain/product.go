package domain

import "time"

// Product statuses.
const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusArchived = "archived"
)

// Product is a catalog entry. Prices are stored in cents.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Status      string    `json:"status"`
	BasePrice   int64     `json:"base_price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductVariant is a concrete purchasable option of a product, e.g. a size
// and color combination.
type ProductVariant struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	SKU       string    `json:"sku"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
