package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleCart() *Cart {
	return &Cart{
		ID:    "cart-1",
		Owner: "user-1",
		Items: []CartItem{
			{ProductID: "p-1", VariantID: "v-1", Price: 1999, Quantity: 2},
			{ProductID: "p-2", Price: 500, Quantity: 1},
		},
		Currency: "USD",
	}
}

func TestCart_TotalAmount(t *testing.T) {
	assert.Equal(t, int64(2*1999+500), sampleCart().TotalAmount())
	assert.Zero(t, (&Cart{}).TotalAmount())
}

func TestCart_ItemCount(t *testing.T) {
	assert.Equal(t, 3, sampleCart().ItemCount())
}

func TestCart_FindItemIndex(t *testing.T) {
	c := sampleCart()
	assert.Equal(t, 0, c.FindItemIndex("p-1", "v-1"))
	assert.Equal(t, 1, c.FindItemIndex("p-2", ""))
	assert.Equal(t, -1, c.FindItemIndex("p-1", ""))
	assert.Equal(t, -1, c.FindItemIndex("p-9", "v-9"))
}
