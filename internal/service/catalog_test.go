package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/modaversa/storefront/internal/domain"
)

func newTestCatalogService(products *mockProductRepo) *CatalogService {
	return NewCatalogService(products, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListProducts_ClampsPaging(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults on zero limit", 0, 0, defaultPageSize, 0},
		{"negative limit", -5, 0, defaultPageSize, 0},
		{"over max", 500, 10, maxPageSize, 10},
		{"negative offset", 10, -3, 10, 0},
		{"in range untouched", 25, 50, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := &mockProductRepo{}
			products.On("List", mock.Anything, tt.wantLimit, tt.wantOffset).
				Return([]domain.Product{}, 0, nil)

			svc := newTestCatalogService(products)
			_, _, err := svc.ListProducts(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)
			products.AssertExpectations(t)
		})
	}
}

func TestListProducts_PassesThroughResults(t *testing.T) {
	products := &mockProductRepo{}
	products.On("List", mock.Anything, defaultPageSize, 0).
		Return([]domain.Product{{ID: "p1"}, {ID: "p2"}}, 7, nil)

	svc := newTestCatalogService(products)
	page, total, err := svc.ListProducts(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 7, total)
}

func TestGetProduct_DelegatesToRepository(t *testing.T) {
	products := &mockProductRepo{}
	products.On("GetByID", mock.Anything, "p1").Return(&domain.Product{ID: "p1", Name: "Silk Scarf"}, nil)

	svc := newTestCatalogService(products)
	p, err := svc.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Silk Scarf", p.Name)
}
