package domain

import (
	"errors"
	"time"
)

// ErrNoOwner is returned when a wishlist carries neither a user identity nor
// a guest token.
var ErrNoOwner = errors.New("wishlist must have a user id or a guest token")

// Identity describes who is making a wishlist request. Either field may be
// empty; an authenticated request carries a UserID, an anonymous one carries
// the opaque guest token the client persists locally.
type Identity struct {
	UserID     string
	GuestToken string
}

// IsZero reports whether the identity carries neither a user nor a guest token.
func (id Identity) IsZero() bool {
	return id.UserID == "" && id.GuestToken == ""
}

// Wishlist is a saved-products list owned by either a registered user or an
// anonymous guest session. ShareToken grants public read-only access.
type Wishlist struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	GuestToken string    `json:"-"`
	ShareToken string    `json:"share_token"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks the wishlist ownership invariant: at least one of user id
// or guest token must be set.
func (w *Wishlist) Validate() error {
	if w.UserID == "" && w.GuestToken == "" {
		return ErrNoOwner
	}
	return nil
}

// OwnedBy reports whether the given identity may mutate this wishlist: the
// authenticated owner always may, and an anonymous caller must present the
// exact guest token the wishlist was created with.
func (w *Wishlist) OwnedBy(ident Identity) bool {
	if w.UserID != "" && ident.UserID == w.UserID {
		return true
	}
	if w.GuestToken != "" && ident.GuestToken == w.GuestToken {
		return true
	}
	return false
}

// WishlistItem is one saved product (optionally a specific variant) in a
// wishlist. Uniqueness is defined by the (wishlist, product, variant) triple;
// a product saved with no variant and the same product saved with a variant
// are distinct entries.
type WishlistItem struct {
	ID         string    `json:"id"`
	WishlistID string    `json:"wishlist_id"`
	ProductID  string    `json:"product_id"`
	VariantID  string    `json:"variant_id,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// Matches reports whether the item refers to the given (product, variant)
// pair.
func (i *WishlistItem) Matches(productID, variantID string) bool {
	return i.ProductID == productID && i.VariantID == variantID
}

// HydratedItem is a wishlist item joined at read time to its product (and
// variant, when the item references one). The join is never stored.
type HydratedItem struct {
	WishlistItem
	Product *Product        `json:"product"`
	Variant *ProductVariant `json:"variant,omitempty"`
}

// HydratedWishlist is the externally visible form of a wishlist: the record
// plus its items joined to their current product snapshots, most recently
// added first. A wishlist with no items hydrates to an empty slice, not nil.
type HydratedWishlist struct {
	Wishlist
	Items []HydratedItem `json:"items"`
}

// FindItem returns the index of the item matching the given (product,
// variant) pair in a raw item set, or -1 when absent.
func FindItem(items []*WishlistItem, productID, variantID string) int {
	for i := range items {
		if items[i].Matches(productID, variantID) {
			return i
		}
	}
	return -1
}

// MostRecentlyUpdated returns the wishlist with the greatest UpdatedAt from
// a non-empty candidate set. Duplicate wishlists can accumulate for one
// identity across sessions; resolution always picks the freshest and leaves
// the rest untouched.
func MostRecentlyUpdated(lists []*Wishlist) *Wishlist {
	if len(lists) == 0 {
		return nil
	}
	best := lists[0]
	for _, w := range lists[1:] {
		if w.UpdatedAt.After(best.UpdatedAt) {
			best = w
		}
	}
	return best
}
