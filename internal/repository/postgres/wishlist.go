package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/modaversa/storefront/internal/domain"
	"github.com/modaversa/storefront/pkg/database"
	apperrors "github.com/modaversa/storefront/pkg/errors"
)

const wishlistColumns = "id, user_id, guest_token, share_token, created_at, updated_at"

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
// Nullable identity columns are mapped to empty strings in the domain type.
type WishlistRepository struct {
	pool database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool database.DBTX) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// Insert creates a new wishlist. The unique index on share_token surfaces a
// collision as ErrAlreadyExists so the service can retry with a fresh token.
func (r *WishlistRepository) Insert(ctx context.Context, w *domain.Wishlist) error {
	if err := w.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	query := `
		INSERT INTO wishlists (id, user_id, guest_token, share_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		w.ID,
		nullable(w.UserID),
		nullable(w.GuestToken),
		w.ShareToken,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("wishlist", "share_token", w.ShareToken)
		}
		return fmt.Errorf("insert wishlist: %w", err)
	}

	return nil
}

// GetByID retrieves a wishlist by its identifier.
func (r *WishlistRepository) GetByID(ctx context.Context, id string) (*domain.Wishlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM wishlists WHERE id = $1`, wishlistColumns)
	return r.scanWishlist(ctx, query, id)
}

// ListByUser returns all wishlists recorded for the given user id.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Wishlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM wishlists WHERE user_id = $1`, wishlistColumns)
	return r.scanWishlists(ctx, query, userID)
}

// ListByGuest returns all wishlists recorded for the given guest token.
func (r *WishlistRepository) ListByGuest(ctx context.Context, guestToken string) ([]*domain.Wishlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM wishlists WHERE guest_token = $1`, wishlistColumns)
	return r.scanWishlists(ctx, query, guestToken)
}

// GetByShareToken retrieves a wishlist via the unique share-token index.
func (r *WishlistRepository) GetByShareToken(ctx context.Context, shareToken string) (*domain.Wishlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM wishlists WHERE share_token = $1`, wishlistColumns)
	return r.scanWishlist(ctx, query, shareToken)
}

// Touch bumps the wishlist's updated_at timestamp.
func (r *WishlistRepository) Touch(ctx context.Context, id string, updatedAt time.Time) error {
	ct, err := r.pool.Exec(ctx, `UPDATE wishlists SET updated_at = $2 WHERE id = $1`, id, updatedAt)
	if err != nil {
		return fmt.Errorf("touch wishlist: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist", id)
	}
	return nil
}

// SetShareToken replaces the wishlist's share token and bumps updated_at.
func (r *WishlistRepository) SetShareToken(ctx context.Context, id, shareToken string, updatedAt time.Time) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE wishlists SET share_token = $2, updated_at = $3 WHERE id = $1`,
		id, shareToken, updatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("wishlist", "share_token", shareToken)
		}
		return fmt.Errorf("set share token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist", id)
	}
	return nil
}

// InsertItem adds an item to a wishlist.
func (r *WishlistRepository) InsertItem(ctx context.Context, item *domain.WishlistItem) error {
	query := `
		INSERT INTO wishlist_items (id, wishlist_id, product_id, variant_id, added_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.WishlistID,
		item.ProductID,
		nullable(item.VariantID),
		item.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wishlist item: %w", err)
	}

	return nil
}

// ListItems returns all items of a wishlist ordered by added_at descending.
func (r *WishlistRepository) ListItems(ctx context.Context, wishlistID string) ([]*domain.WishlistItem, error) {
	query := `
		SELECT id, wishlist_id, product_id, variant_id, added_at
		FROM wishlist_items
		WHERE wishlist_id = $1
		ORDER BY added_at DESC`

	rows, err := r.pool.Query(ctx, query, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items := []*domain.WishlistItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist item rows: %w", err)
	}

	return items, nil
}

// GetItem retrieves a single item by its identifier.
func (r *WishlistRepository) GetItem(ctx context.Context, itemID string) (*domain.WishlistItem, error) {
	query := `
		SELECT id, wishlist_id, product_id, variant_id, added_at
		FROM wishlist_items
		WHERE id = $1`

	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get wishlist item: %w", err)
		}
		return nil, apperrors.NotFound("wishlist item", itemID)
	}

	return scanItem(rows)
}

// DeleteItem removes an item by its identifier.
func (r *WishlistRepository) DeleteItem(ctx context.Context, itemID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM wishlist_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", itemID)
	}
	return nil
}

// --- helpers ---

func (r *WishlistRepository) scanWishlist(ctx context.Context, query string, arg any) (*domain.Wishlist, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	var (
		w          domain.Wishlist
		userID     *string
		guestToken *string
	)
	err := row.Scan(&w.ID, &userID, &guestToken, &w.ShareToken, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("wishlist", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("scan wishlist: %w", err)
	}

	w.UserID = deref(userID)
	w.GuestToken = deref(guestToken)
	return &w, nil
}

func (r *WishlistRepository) scanWishlists(ctx context.Context, query string, arg any) ([]*domain.Wishlist, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list wishlists: %w", err)
	}
	defer rows.Close()

	var lists []*domain.Wishlist
	for rows.Next() {
		var (
			w          domain.Wishlist
			userID     *string
			guestToken *string
		)
		if err := rows.Scan(&w.ID, &userID, &guestToken, &w.ShareToken, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist: %w", err)
		}
		w.UserID = deref(userID)
		w.GuestToken = deref(guestToken)
		lists = append(lists, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist rows: %w", err)
	}

	return lists, nil
}

func scanItem(rows pgx.Rows) (*domain.WishlistItem, error) {
	var (
		item      domain.WishlistItem
		variantID *string
	)
	if err := rows.Scan(&item.ID, &item.WishlistID, &item.ProductID, &variantID, &item.AddedAt); err != nil {
		return nil, fmt.Errorf("scan wishlist item: %w", err)
	}
	item.VariantID = deref(variantID)
	return &item, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
