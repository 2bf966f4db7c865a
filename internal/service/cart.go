package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modaversa/storefront/internal/domain"
	"github.com/modaversa/storefront/internal/repository"
	apperrors "github.com/modaversa/storefront/pkg/errors"
)

const (
	maxQuantityPerItem = 99
	defaultCartTTL     = 30 * 24 * time.Hour
	defaultCurrency    = "EUR"
)

// CartEvents is the event surface the cart service publishes to.
type CartEvents interface {
	CartUpdated(ctx context.Context, owner string, itemCount int, total int64)
	CartMerged(ctx context.Context, userID string, itemCount int)
}

// CartService implements shopping cart operations keyed by owner: a user id
// for authenticated callers, a guest token otherwise.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	events   CartEvents
	logger   *slog.Logger

	now func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	events CartEvents,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ownerKey maps an identity to its cart key, preferring the user id.
func ownerKey(ident domain.Identity) (string, error) {
	if ident.UserID != "" {
		return ident.UserID, nil
	}
	if ident.GuestToken != "" {
		return ident.GuestToken, nil
	}
	return "", apperrors.Unauthorized("missing identity")
}

// Get returns the caller's cart, or an empty unsaved cart when none exists.
func (s *CartService) Get(ctx context.Context, ident domain.Identity) (*domain.Cart, error) {
	owner, err := ownerKey(ident)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.emptyCart(owner), nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem puts quantity units of a (product, variant) pair in the cart,
// creating the cart on first use. Quantities for an already present pair
// accumulate up to the per-item cap.
func (s *CartService) AddItem(ctx context.Context, ident domain.Identity, productID, variantID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	owner, err := ownerKey(ident)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	price := product.BasePrice
	sku := ""
	if variantID != "" {
		variant, err := s.products.GetVariant(ctx, productID, variantID)
		if err != nil {
			return nil, err
		}
		price = variant.Price
		sku = variant.SKU
	}

	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		cart = s.emptyCart(owner)
	}

	if idx := cart.FindItemIndex(productID, variantID); idx >= 0 {
		cart.Items[idx].Quantity = capQuantity(cart.Items[idx].Quantity + quantity)
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: productID,
			VariantID: variantID,
			Name:      product.Name,
			SKU:       sku,
			Price:     price,
			Quantity:  capQuantity(quantity),
			ImageURL:  product.ImageURL,
		})
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItemQuantity sets the quantity of a cart line. A quantity of zero
// removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, ident domain.Identity, productID, variantID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}

	owner, err := ownerKey(ident)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItemIndex(productID, variantID)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = capQuantity(quantity)
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes a line from the cart. A missing line succeeds silently.
func (s *CartService) RemoveItem(ctx context.Context, ident domain.Identity, productID, variantID string) (*domain.Cart, error) {
	owner, err := ownerKey(ident)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.emptyCart(owner), nil
		}
		return nil, err
	}

	if idx := cart.FindItemIndex(productID, variantID); idx >= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		if err := s.save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// Clear drops the caller's cart entirely.
func (s *CartService) Clear(ctx context.Context, ident domain.Identity) error {
	owner, err := ownerKey(ident)
	if err != nil {
		return err
	}
	return s.carts.Delete(ctx, owner)
}

// Merge folds a guest cart into the user's cart at login. Quantities of
// matching lines accumulate up to the per-item cap, then the guest cart is
// deleted. A missing guest cart makes the merge a no-op.
func (s *CartService) Merge(ctx context.Context, userID, guestToken string) (*domain.Cart, error) {
	if userID == "" || guestToken == "" {
		return nil, apperrors.InvalidInput("user id and guest token are required")
	}

	guestCart, err := s.carts.Get(ctx, guestToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.Get(ctx, domain.Identity{UserID: userID})
		}
		return nil, err
	}

	userCart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		userCart = s.emptyCart(userID)
	}

	for _, item := range guestCart.Items {
		if idx := userCart.FindItemIndex(item.ProductID, item.VariantID); idx >= 0 {
			userCart.Items[idx].Quantity = capQuantity(userCart.Items[idx].Quantity + item.Quantity)
		} else {
			userCart.Items = append(userCart.Items, item)
		}
	}

	if err := s.save(ctx, userCart); err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, guestToken); err != nil {
		s.logger.WarnContext(ctx, "guest cart not deleted after merge",
			slog.String("error", err.Error()),
		)
	}

	s.events.CartMerged(ctx, userID, userCart.ItemCount())
	s.logger.InfoContext(ctx, "guest cart merged",
		slog.String("user_id", userID),
		slog.Int("item_count", userCart.ItemCount()),
	)
	return userCart, nil
}

func (s *CartService) emptyCart(owner string) *domain.Cart {
	now := s.now()
	return &domain.Cart{
		ID:        uuid.New().String(),
		Owner:     owner,
		Items:     []domain.CartItem{},
		Currency:  defaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(defaultCartTTL),
	}
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) error {
	now := s.now()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(defaultCartTTL)
	if err := s.carts.Save(ctx, cart); err != nil {
		return err
	}
	s.events.CartUpdated(ctx, cart.Owner, cart.ItemCount(), cart.TotalAmount())
	return nil
}

func capQuantity(q int) int {
	if q > maxQuantityPerItem {
		return maxQuantityPerItem
	}
	return q
}
