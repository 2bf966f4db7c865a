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

// shareTokenAttempts bounds retries when a generated share token collides
// with an existing one.
const shareTokenAttempts = 3

// WishlistEvents is the event surface the wishlist service publishes to.
type WishlistEvents interface {
	WishlistItemAdded(ctx context.Context, wishlistID, productID, variantID string)
	WishlistItemRemoved(ctx context.Context, wishlistID, productID, variantID string)
	WishlistShared(ctx context.Context, wishlistID, shareToken string)
}

// WishlistService implements wishlist resolution, mutation and sharing for
// both authenticated users and anonymous guests.
type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	events    WishlistEvents
	logger    *slog.Logger

	now      func() time.Time
	newID    func() string
	newToken func() string
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(
	wishlists repository.WishlistRepository,
	products repository.ProductRepository,
	events WishlistEvents,
	logger *slog.Logger,
) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		products:  products,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
		newToken:  func() string { return uuid.New().String() },
	}
}

// GetOrCreate returns the caller's wishlist in hydrated form, creating an
// empty one when the identity has none yet.
func (s *WishlistService) GetOrCreate(ctx context.Context, ident domain.Identity) (*domain.HydratedWishlist, error) {
	w, err := s.ensure(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, w)
}

// List resolves the caller's wishlist without creating one. It returns
// (nil, nil) when the identity has no wishlist yet.
func (s *WishlistService) List(ctx context.Context, ident domain.Identity) (*domain.HydratedWishlist, error) {
	if ident.IsZero() {
		return nil, nil
	}
	w, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}
	return s.hydrate(ctx, w)
}

// AddItem saves a (product, variant) pair to the caller's wishlist. Adding a
// pair that is already saved skips the insert but still freshens the list's
// updated_at, keeping it the winning candidate at resolution time. The
// product, and the variant when one is given, must exist.
func (s *WishlistService) AddItem(ctx context.Context, ident domain.Identity, productID, variantID string) (*domain.HydratedWishlist, error) {
	if ident.IsZero() {
		return nil, apperrors.Unauthorized("missing identity")
	}

	// The product reference is validated before the wishlist is resolved so
	// a rejected request never creates an empty list as a side effect.
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	if variantID != "" {
		if _, err := s.products.GetVariant(ctx, productID, variantID); err != nil {
			return nil, err
		}
	}

	w, err := s.ensure(ctx, ident)
	if err != nil {
		return nil, err
	}

	items, err := s.wishlists.ListItems(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if domain.FindItem(items, productID, variantID) < 0 {
		item := &domain.WishlistItem{
			ID:         s.newID(),
			WishlistID: w.ID,
			ProductID:  productID,
			VariantID:  variantID,
			AddedAt:    now,
		}
		if err := s.wishlists.InsertItem(ctx, item); err != nil {
			return nil, err
		}
		s.events.WishlistItemAdded(ctx, w.ID, productID, variantID)
	}

	if err := s.wishlists.Touch(ctx, w.ID, now); err != nil {
		return nil, err
	}
	w.UpdatedAt = now

	return s.hydrate(ctx, w)
}

// RemoveItem deletes an item from the caller's wishlist and returns the
// remaining hydrated list. Removing an item that no longer exists returns
// (nil, nil). Callers that do not own the containing wishlist are rejected.
func (s *WishlistService) RemoveItem(ctx context.Context, ident domain.Identity, itemID string) (*domain.HydratedWishlist, error) {
	if ident.IsZero() {
		return nil, apperrors.Unauthorized("missing identity")
	}

	item, err := s.wishlists.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	w, err := s.wishlists.GetByID(ctx, item.WishlistID)
	if err != nil {
		return nil, err
	}
	if !w.OwnedBy(ident) {
		return nil, apperrors.Unauthorized("wishlist does not belong to caller")
	}

	if err := s.wishlists.DeleteItem(ctx, itemID); err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.wishlists.Touch(ctx, w.ID, now); err != nil {
		return nil, err
	}
	w.UpdatedAt = now

	s.events.WishlistItemRemoved(ctx, w.ID, item.ProductID, item.VariantID)
	return s.hydrate(ctx, w)
}

// Share returns the caller's share token, creating the wishlist first when
// needed. Tokens are assigned at creation; wishlists predating that get one
// assigned here. Sharing freshens updated_at either way.
func (s *WishlistService) Share(ctx context.Context, ident domain.Identity) (string, error) {
	w, err := s.ensure(ctx, ident)
	if err != nil {
		return "", err
	}

	if w.ShareToken == "" {
		var lastErr error
		for i := 0; i < shareTokenAttempts; i++ {
			token := s.newToken()
			if err := s.wishlists.SetShareToken(ctx, w.ID, token, s.now()); err != nil {
				if errors.Is(err, apperrors.ErrAlreadyExists) {
					lastErr = err
					continue
				}
				return "", err
			}
			w.ShareToken = token
			break
		}
		if w.ShareToken == "" {
			return "", apperrors.CreateFailed("share token", lastErr)
		}
	} else if err := s.wishlists.Touch(ctx, w.ID, s.now()); err != nil {
		return "", err
	}

	s.events.WishlistShared(ctx, w.ID, w.ShareToken)
	return w.ShareToken, nil
}

// GetShared returns the hydrated wishlist behind a share token, or
// (nil, nil) when the token matches nothing. No ownership check applies; the
// token itself is the capability.
func (s *WishlistService) GetShared(ctx context.Context, shareToken string) (*domain.HydratedWishlist, error) {
	w, err := s.wishlists.GetByShareToken(ctx, shareToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.hydrate(ctx, w)
}

// ensure resolves the identity to its current wishlist and creates one when
// neither index yields a match.
func (s *WishlistService) ensure(ctx context.Context, ident domain.Identity) (*domain.Wishlist, error) {
	if ident.IsZero() {
		return nil, apperrors.Unauthorized("missing identity")
	}

	w, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return w, nil
	}
	return s.create(ctx, ident)
}

// resolve checks the user index before the guest index. With multiple
// candidates the most recently updated wins.
func (s *WishlistService) resolve(ctx context.Context, ident domain.Identity) (*domain.Wishlist, error) {
	if ident.UserID != "" {
		lists, err := s.wishlists.ListByUser(ctx, ident.UserID)
		if err != nil {
			return nil, err
		}
		if w := domain.MostRecentlyUpdated(lists); w != nil {
			return w, nil
		}
	}

	if ident.GuestToken != "" {
		lists, err := s.wishlists.ListByGuest(ctx, ident.GuestToken)
		if err != nil {
			return nil, err
		}
		if w := domain.MostRecentlyUpdated(lists); w != nil {
			return w, nil
		}
	}

	return nil, nil
}

// create inserts a fresh wishlist for the identity. When the identity
// carries both a user id and a guest token the user owns the new list.
// Share tokens are generated here; a collision on the unique token index
// triggers a retry with a new token.
func (s *WishlistService) create(ctx context.Context, ident domain.Identity) (*domain.Wishlist, error) {
	var lastErr error
	for i := 0; i < shareTokenAttempts; i++ {
		now := s.now()
		w := &domain.Wishlist{
			ID:         s.newID(),
			ShareToken: s.newToken(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if ident.UserID != "" {
			w.UserID = ident.UserID
		} else {
			w.GuestToken = ident.GuestToken
		}

		err := s.wishlists.Insert(ctx, w)
		if err == nil {
			s.logger.InfoContext(ctx, "wishlist created",
				slog.String("wishlist_id", w.ID),
				slog.Bool("guest", w.UserID == ""),
			)
			return w, nil
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
		lastErr = err
	}

	return nil, apperrors.CreateFailed("wishlist", lastErr)
}

// hydrate joins wishlist items to their current product and variant records,
// newest first. Items whose product or variant has since been removed from
// the catalog are dropped from the view.
func (s *WishlistService) hydrate(ctx context.Context, w *domain.Wishlist) (*domain.HydratedWishlist, error) {
	items, err := s.wishlists.ListItems(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	hydrated := make([]domain.HydratedItem, 0, len(items))
	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}

		var variant *domain.ProductVariant
		if item.VariantID != "" {
			variant, err = s.products.GetVariant(ctx, item.ProductID, item.VariantID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					continue
				}
				return nil, err
			}
		}

		hydrated = append(hydrated, domain.HydratedItem{
			WishlistItem: *item,
			Product:      product,
			Variant:      variant,
		})
	}

	return &domain.HydratedWishlist{
		Wishlist: *w,
		Items:    hydrated,
	}, nil
}
