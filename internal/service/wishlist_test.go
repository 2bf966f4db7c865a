package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/modaversa/storefront/internal/domain"
	apperrors "github.com/modaversa/storefront/pkg/errors"
)

type mockWishlistRepo struct {
	mock.Mock
}

func (m *mockWishlistRepo) Insert(ctx context.Context, w *domain.Wishlist) error {
	return m.Called(ctx, w).Error(0)
}

func (m *mockWishlistRepo) GetByID(ctx context.Context, id string) (*domain.Wishlist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Wishlist, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistRepo) ListByGuest(ctx context.Context, guestToken string) ([]*domain.Wishlist, error) {
	args := m.Called(ctx, guestToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistRepo) GetByShareToken(ctx context.Context, shareToken string) (*domain.Wishlist, error) {
	args := m.Called(ctx, shareToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistRepo) Touch(ctx context.Context, id string, updatedAt time.Time) error {
	return m.Called(ctx, id, updatedAt).Error(0)
}

func (m *mockWishlistRepo) SetShareToken(ctx context.Context, id, shareToken string, updatedAt time.Time) error {
	return m.Called(ctx, id, shareToken, updatedAt).Error(0)
}

func (m *mockWishlistRepo) InsertItem(ctx context.Context, item *domain.WishlistItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockWishlistRepo) ListItems(ctx context.Context, wishlistID string) ([]*domain.WishlistItem, error) {
	args := m.Called(ctx, wishlistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistRepo) GetItem(ctx context.Context, itemID string) (*domain.WishlistItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistRepo) DeleteItem(ctx context.Context, itemID string) error {
	return m.Called(ctx, itemID).Error(0)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepo) GetVariant(ctx context.Context, productID, variantID string) (*domain.ProductVariant, error) {
	args := m.Called(ctx, productID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductVariant), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, limit, offset int) ([]domain.Product, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

// recordingEvents captures published wishlist events for assertions.
type recordingEvents struct {
	added   []string
	removed []string
	shared  []string
}

func (r *recordingEvents) WishlistItemAdded(_ context.Context, wishlistID, productID, variantID string) {
	r.added = append(r.added, wishlistID+"/"+productID+"/"+variantID)
}

func (r *recordingEvents) WishlistItemRemoved(_ context.Context, wishlistID, productID, variantID string) {
	r.removed = append(r.removed, wishlistID+"/"+productID+"/"+variantID)
}

func (r *recordingEvents) WishlistShared(_ context.Context, wishlistID, shareToken string) {
	r.shared = append(r.shared, wishlistID+"/"+shareToken)
}

func newTestWishlistService(wishlists *mockWishlistRepo, products *mockProductRepo) (*WishlistService, *recordingEvents) {
	events := &recordingEvents{}
	svc := NewWishlistService(wishlists, products, events, slog.New(slog.NewTextHandler(io.Discard, nil)))

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	idSeq := 0
	svc.newID = func() string {
		idSeq++
		return fmt.Sprintf("id-%d", idSeq)
	}
	tokenSeq := 0
	svc.newToken = func() string {
		tokenSeq++
		return fmt.Sprintf("token-%d", tokenSeq)
	}

	return svc, events
}

func userList(id, userID string, updatedAt time.Time) *domain.Wishlist {
	return &domain.Wishlist{ID: id, UserID: userID, ShareToken: "st-" + id, UpdatedAt: updatedAt}
}

func guestList(id, token string, updatedAt time.Time) *domain.Wishlist {
	return &domain.Wishlist{ID: id, GuestToken: token, ShareToken: "st-" + id, UpdatedAt: updatedAt}
}

func TestWishlistGetOrCreate_UserIndexWinsOverGuest(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	now := time.Now()
	userOwned := userList("w-user", "u-1", now.Add(-time.Hour))
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{userOwned}, nil)
	wishlists.On("ListItems", mock.Anything, "w-user").Return([]*domain.WishlistItem{}, nil)

	got, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1", GuestToken: "g-1"})
	require.NoError(t, err)
	assert.Equal(t, "w-user", got.ID)
	wishlists.AssertNotCalled(t, "ListByGuest", mock.Anything, mock.Anything)
}

func TestWishlistGetOrCreate_FallsBackToGuestIndex(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{}, nil)
	wishlists.On("ListByGuest", mock.Anything, "g-1").
		Return([]*domain.Wishlist{guestList("w-guest", "g-1", time.Now())}, nil)
	wishlists.On("ListItems", mock.Anything, "w-guest").Return([]*domain.WishlistItem{}, nil)

	got, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1", GuestToken: "g-1"})
	require.NoError(t, err)
	assert.Equal(t, "w-guest", got.ID)
}

func TestWishlistGetOrCreate_MostRecentlyUpdatedWins(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	now := time.Now()
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{
		userList("w-old", "u-1", now.Add(-2*time.Hour)),
		userList("w-new", "u-1", now),
		userList("w-mid", "u-1", now.Add(-time.Hour)),
	}, nil)
	wishlists.On("ListItems", mock.Anything, "w-new").Return([]*domain.WishlistItem{}, nil)

	got, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "w-new", got.ID)
}

func TestWishlistGetOrCreate_CreatesWhenNoneExists(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{}, nil)
	wishlists.On("ListByGuest", mock.Anything, "g-1").Return([]*domain.Wishlist{}, nil)
	wishlists.On("Insert", mock.Anything, mock.MatchedBy(func(w *domain.Wishlist) bool {
		// both identities present: the user owns the new list
		return w.UserID == "u-1" && w.GuestToken == "" && w.ShareToken != ""
	})).Return(nil)
	wishlists.On("ListItems", mock.Anything, mock.Anything).Return([]*domain.WishlistItem{}, nil)

	got, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1", GuestToken: "g-1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	wishlists.AssertExpectations(t)
}

func TestWishlistGetOrCreate_GuestOnlyCreate(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByGuest", mock.Anything, "g-1").Return([]*domain.Wishlist{}, nil)
	wishlists.On("Insert", mock.Anything, mock.MatchedBy(func(w *domain.Wishlist) bool {
		return w.UserID == "" && w.GuestToken == "g-1"
	})).Return(nil)
	wishlists.On("ListItems", mock.Anything, mock.Anything).Return([]*domain.WishlistItem{}, nil)

	_, err := svc.GetOrCreate(context.Background(), domain.Identity{GuestToken: "g-1"})
	require.NoError(t, err)
	wishlists.AssertExpectations(t)
}

func TestWishlistGetOrCreate_MissingIdentity(t *testing.T) {
	svc, _ := newTestWishlistService(&mockWishlistRepo{}, &mockProductRepo{})

	_, err := svc.GetOrCreate(context.Background(), domain.Identity{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestWishlistList_NilWhenAbsent(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{}, nil)

	got, err := svc.List(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	assert.Nil(t, got)
	wishlists.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestWishlistList_ResolvesWithoutCreating(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByGuest", mock.Anything, "g-1").
		Return([]*domain.Wishlist{guestList("w-1", "g-1", time.Now())}, nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{}, nil)

	got, err := svc.List(context.Background(), domain.Identity{GuestToken: "g-1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "w-1", got.ID)
}

func TestWishlistList_ZeroIdentity(t *testing.T) {
	svc, _ := newTestWishlistService(&mockWishlistRepo{}, &mockProductRepo{})

	got, err := svc.List(context.Background(), domain.Identity{})
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestWishlistCreate_RetriesShareTokenCollision(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{}, nil)
	wishlists.On("Insert", mock.Anything, mock.MatchedBy(func(w *domain.Wishlist) bool {
		return w.ShareToken == "token-1"
	})).Return(apperrors.AlreadyExists("wishlist", "share_token", "token-1")).Once()
	wishlists.On("Insert", mock.Anything, mock.MatchedBy(func(w *domain.Wishlist) bool {
		return w.ShareToken == "token-2"
	})).Return(nil).Once()
	wishlists.On("ListItems", mock.Anything, mock.Anything).Return([]*domain.WishlistItem{}, nil)

	_, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	wishlists.AssertExpectations(t)
}

func TestWishlistCreate_FailsAfterExhaustedRetries(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{}, nil)
	wishlists.On("Insert", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("wishlist", "share_token", "x")).Times(3)

	_, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1"})
	assert.ErrorIs(t, err, apperrors.ErrCreateFailed)
	wishlists.AssertExpectations(t)
}

func TestAddItem_InsertsAndTouches(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, events := newTestWishlistService(wishlists, products)

	w := userList("w-1", "u-1", time.Now())
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{w}, nil)
	products.On("GetByID", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1", Status: domain.ProductStatusActive}, nil)
	products.On("GetVariant", mock.Anything, "p-1", "v-1").Return(&domain.ProductVariant{ID: "v-1", ProductID: "p-1"}, nil)

	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{}, nil).Once()
	wishlists.On("InsertItem", mock.Anything, mock.MatchedBy(func(it *domain.WishlistItem) bool {
		return it.WishlistID == "w-1" && it.ProductID == "p-1" && it.VariantID == "v-1"
	})).Return(nil)
	wishlists.On("Touch", mock.Anything, "w-1", mock.Anything).Return(nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{
		{ID: "i-1", WishlistID: "w-1", ProductID: "p-1", VariantID: "v-1"},
	}, nil)

	got, err := svc.AddItem(context.Background(), domain.Identity{UserID: "u-1"}, "p-1", "v-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p-1", got.Items[0].ProductID)
	assert.Equal(t, []string{"w-1/p-1/v-1"}, events.added)
	wishlists.AssertExpectations(t)
}

func TestAddItem_DuplicateSkipsInsertButTouches(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, events := newTestWishlistService(wishlists, products)

	w := userList("w-1", "u-1", time.Now())
	existing := &domain.WishlistItem{ID: "i-1", WishlistID: "w-1", ProductID: "p-1", VariantID: "v-1"}
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{w}, nil)
	products.On("GetByID", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1"}, nil)
	products.On("GetVariant", mock.Anything, "p-1", "v-1").Return(&domain.ProductVariant{ID: "v-1", ProductID: "p-1"}, nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{existing}, nil)
	wishlists.On("Touch", mock.Anything, "w-1", mock.Anything).Return(nil)

	got, err := svc.AddItem(context.Background(), domain.Identity{UserID: "u-1"}, "p-1", "v-1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Empty(t, events.added)
	wishlists.AssertNotCalled(t, "InsertItem", mock.Anything, mock.Anything)
	// the list is still freshened so it keeps winning resolution
	wishlists.AssertCalled(t, "Touch", mock.Anything, "w-1", mock.Anything)
}

func TestAddItem_VariantDistinctFromBareProduct(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	w := userList("w-1", "u-1", time.Now())
	bare := &domain.WishlistItem{ID: "i-1", WishlistID: "w-1", ProductID: "p-1"}
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{w}, nil)
	products.On("GetByID", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1"}, nil)
	products.On("GetVariant", mock.Anything, "p-1", "v-1").Return(&domain.ProductVariant{ID: "v-1", ProductID: "p-1"}, nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{bare}, nil)
	wishlists.On("InsertItem", mock.Anything, mock.Anything).Return(nil)
	wishlists.On("Touch", mock.Anything, "w-1", mock.Anything).Return(nil)

	_, err := svc.AddItem(context.Background(), domain.Identity{UserID: "u-1"}, "p-1", "v-1")
	require.NoError(t, err)
	wishlists.AssertCalled(t, "InsertItem", mock.Anything, mock.Anything)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{userList("w-1", "u-1", time.Now())}, nil)
	products.On("GetByID", mock.Anything, "nope").Return(nil, apperrors.NotFound("product", "nope"))

	_, err := svc.AddItem(context.Background(), domain.Identity{UserID: "u-1"}, "nope", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddItem_UnknownProductLeavesNoWishlistBehind(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	products.On("GetByID", mock.Anything, "nope").Return(nil, apperrors.NotFound("product", "nope"))

	_, err := svc.AddItem(context.Background(), domain.Identity{GuestToken: "g-1"}, "nope", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The guest had no wishlist; the rejected request must not create one.
	wishlists.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	wishlists.AssertNotCalled(t, "ListByGuest", mock.Anything, mock.Anything)

	wishlists.On("ListByGuest", mock.Anything, "g-1").Return([]*domain.Wishlist{}, nil)
	got, listErr := svc.List(context.Background(), domain.Identity{GuestToken: "g-1"})
	require.NoError(t, listErr)
	assert.Nil(t, got)
}

func TestAddItem_UnknownVariant(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{userList("w-1", "u-1", time.Now())}, nil)
	products.On("GetByID", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1"}, nil)
	products.On("GetVariant", mock.Anything, "p-1", "nope").Return(nil, apperrors.NotFound("variant", "nope"))

	_, err := svc.AddItem(context.Background(), domain.Identity{UserID: "u-1"}, "p-1", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveItem_Succeeds(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, events := newTestWishlistService(wishlists, products)

	item := &domain.WishlistItem{ID: "i-1", WishlistID: "w-1", ProductID: "p-1"}
	wishlists.On("GetItem", mock.Anything, "i-1").Return(item, nil)
	wishlists.On("GetByID", mock.Anything, "w-1").Return(userList("w-1", "u-1", time.Now()), nil)
	wishlists.On("DeleteItem", mock.Anything, "i-1").Return(nil)
	wishlists.On("Touch", mock.Anything, "w-1", mock.Anything).Return(nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{}, nil)

	got, err := svc.RemoveItem(context.Background(), domain.Identity{UserID: "u-1"}, "i-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Items)
	assert.Equal(t, []string{"w-1/p-1/"}, events.removed)
	wishlists.AssertExpectations(t)
}

func TestRemoveItem_MissingItemIsNoop(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, events := newTestWishlistService(wishlists, products)

	wishlists.On("GetItem", mock.Anything, "gone").Return(nil, apperrors.NotFound("wishlist item", "gone"))

	got, err := svc.RemoveItem(context.Background(), domain.Identity{UserID: "u-1"}, "gone")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, events.removed)
	wishlists.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything)
}

func TestRemoveItem_RejectsNonOwner(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	item := &domain.WishlistItem{ID: "i-1", WishlistID: "w-1", ProductID: "p-1"}
	wishlists.On("GetItem", mock.Anything, "i-1").Return(item, nil)
	wishlists.On("GetByID", mock.Anything, "w-1").Return(userList("w-1", "u-1", time.Now()), nil)

	_, err := svc.RemoveItem(context.Background(), domain.Identity{UserID: "someone-else"}, "i-1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	wishlists.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything)
}

func TestRemoveItem_GuestTokenMustMatch(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	item := &domain.WishlistItem{ID: "i-1", WishlistID: "w-1", ProductID: "p-1"}
	wishlists.On("GetItem", mock.Anything, "i-1").Return(item, nil)
	wishlists.On("GetByID", mock.Anything, "w-1").Return(guestList("w-1", "g-1", time.Now()), nil)
	wishlists.On("DeleteItem", mock.Anything, "i-1").Return(nil)
	wishlists.On("Touch", mock.Anything, "w-1", mock.Anything).Return(nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{}, nil)

	_, err := svc.RemoveItem(context.Background(), domain.Identity{GuestToken: "wrong"}, "i-1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.RemoveItem(context.Background(), domain.Identity{GuestToken: "g-1"}, "i-1")
	assert.NoError(t, err)
}

func TestShare_ReusesExistingTokenAndTouches(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, events := newTestWishlistService(wishlists, products)

	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{userList("w-1", "u-1", time.Now())}, nil)
	wishlists.On("Touch", mock.Anything, "w-1", mock.Anything).Return(nil)

	token, err := svc.Share(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "st-w-1", token)
	assert.Equal(t, []string{"w-1/st-w-1"}, events.shared)
	wishlists.AssertNotCalled(t, "SetShareToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	wishlists.AssertCalled(t, "Touch", mock.Anything, "w-1", mock.Anything)
}

func TestShare_AssignsTokenWhenMissing(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	w := &domain.Wishlist{ID: "w-1", UserID: "u-1", UpdatedAt: time.Now()}
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{w}, nil)
	wishlists.On("SetShareToken", mock.Anything, "w-1", "token-1", mock.Anything).
		Return(apperrors.AlreadyExists("wishlist", "share_token", "token-1")).Once()
	wishlists.On("SetShareToken", mock.Anything, "w-1", "token-2", mock.Anything).Return(nil).Once()

	token, err := svc.Share(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	wishlists.AssertExpectations(t)
}

func TestGetShared_HydratesWithoutOwnershipCheck(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	w := guestList("w-1", "g-1", time.Now())
	wishlists.On("GetByShareToken", mock.Anything, "st-w-1").Return(w, nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{
		{ID: "i-2", WishlistID: "w-1", ProductID: "p-2"},
		{ID: "i-1", WishlistID: "w-1", ProductID: "p-1"},
	}, nil)
	products.On("GetByID", mock.Anything, "p-2").Return(&domain.Product{ID: "p-2"}, nil)
	products.On("GetByID", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1"}, nil)

	got, err := svc.GetShared(context.Background(), "st-w-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	// store order (newest first) is preserved
	assert.Equal(t, "p-2", got.Items[0].ProductID)
	assert.Equal(t, "p-1", got.Items[1].ProductID)
}

func TestGetShared_UnknownTokenIsNil(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	wishlists.On("GetByShareToken", mock.Anything, "nope").Return(nil, apperrors.NotFound("wishlist", "nope"))

	got, err := svc.GetShared(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestHydrate_DropsItemsWithDeletedProducts(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	w := userList("w-1", "u-1", time.Now())
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{w}, nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{
		{ID: "i-1", WishlistID: "w-1", ProductID: "p-gone"},
		{ID: "i-2", WishlistID: "w-1", ProductID: "p-1", VariantID: "v-gone"},
		{ID: "i-3", WishlistID: "w-1", ProductID: "p-1", VariantID: "v-1"},
	}, nil)
	products.On("GetByID", mock.Anything, "p-gone").Return(nil, apperrors.NotFound("product", "p-gone"))
	products.On("GetByID", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1"}, nil)
	products.On("GetVariant", mock.Anything, "p-1", "v-gone").Return(nil, apperrors.NotFound("variant", "v-gone"))
	products.On("GetVariant", mock.Anything, "p-1", "v-1").Return(&domain.ProductVariant{ID: "v-1", ProductID: "p-1"}, nil)

	got, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "i-3", got.Items[0].ID)
	require.NotNil(t, got.Items[0].Variant)
	assert.Equal(t, "v-1", got.Items[0].Variant.ID)
}

func TestHydrate_EmptyWishlistYieldsEmptySlice(t *testing.T) {
	wishlists := &mockWishlistRepo{}
	products := &mockProductRepo{}
	svc, _ := newTestWishlistService(wishlists, products)

	w := userList("w-1", "u-1", time.Now())
	wishlists.On("ListByUser", mock.Anything, "u-1").Return([]*domain.Wishlist{w}, nil)
	wishlists.On("ListItems", mock.Anything, "w-1").Return([]*domain.WishlistItem{}, nil)

	got, err := svc.GetOrCreate(context.Background(), domain.Identity{UserID: "u-1"})
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}
