package repository

import (
	"context"
	"time"

	"github.com/modaversa/storefront/internal/domain"
)

// WishlistRepository defines the persistence operations for wishlists and
// their items. Lookups mirror the store's secondary indexes: by_user,
// by_guest, by_share_token, and by_wishlist for items.
type WishlistRepository interface {
	// Insert creates a new wishlist. A share-token uniqueness violation is
	// returned as apperrors.ErrAlreadyExists so callers can retry with a
	// fresh token.
	Insert(ctx context.Context, w *domain.Wishlist) error

	// GetByID retrieves a wishlist by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Wishlist, error)

	// ListByUser returns all wishlists recorded for the given user id.
	ListByUser(ctx context.Context, userID string) ([]*domain.Wishlist, error)

	// ListByGuest returns all wishlists recorded for the given guest token.
	ListByGuest(ctx context.Context, guestToken string) ([]*domain.Wishlist, error)

	// GetByShareToken retrieves a wishlist via the unique share-token index.
	GetByShareToken(ctx context.Context, shareToken string) (*domain.Wishlist, error)

	// Touch bumps the wishlist's updated_at timestamp.
	Touch(ctx context.Context, id string, updatedAt time.Time) error

	// SetShareToken replaces the wishlist's share token and bumps updated_at.
	SetShareToken(ctx context.Context, id, shareToken string, updatedAt time.Time) error

	// InsertItem adds an item to a wishlist.
	InsertItem(ctx context.Context, item *domain.WishlistItem) error

	// ListItems returns all items of a wishlist ordered by added_at descending.
	ListItems(ctx context.Context, wishlistID string) ([]*domain.WishlistItem, error)

	// GetItem retrieves a single item by its identifier.
	GetItem(ctx context.Context, itemID string) (*domain.WishlistItem, error)

	// DeleteItem removes an item by its identifier.
	DeleteItem(ctx context.Context, itemID string) error
}

// ProductRepository defines the catalog lookups the storefront needs.
type ProductRepository interface {
	// GetByID retrieves a product by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetVariant retrieves a variant by id, scoped to its product.
	GetVariant(ctx context.Context, productID, variantID string) (*domain.ProductVariant, error)

	// List returns active products, newest first.
	List(ctx context.Context, limit, offset int) ([]domain.Product, int, error)
}

// CartRepository defines the interface for cart persistence operations.
// Carts are keyed by an owner string: a user id or a guest token.
type CartRepository interface {
	// Get retrieves a cart by its owner key.
	Get(ctx context.Context, owner string) (*domain.Cart, error)

	// Save persists a cart, overwriting any existing cart for the owner.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes a cart from the store by the owner key.
	Delete(ctx context.Context, owner string) error
}
