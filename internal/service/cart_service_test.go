package service

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCartStore struct {
	carts  map[int64]*models.Cart
	items  map[int64][]models.CartItem
	nextID int64
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{
		carts: make(map[int64]*models.Cart),
		items: make(map[int64][]models.CartItem),
	}
}

func (f *fakeCartStore) GetOrCreateCart(_ context.Context, userID int64) (*models.Cart, error) {
	if c, ok := f.carts[userID]; ok {
		return c, nil
	}
	f.nextID++
	c := &models.Cart{ID: f.nextID, UserID: userID}
	f.carts[userID] = c
	return c, nil
}

func (f *fakeCartStore) GetCartItems(_ context.Context, cartID int64) ([]models.CartItem, error) {
	return f.items[cartID], nil
}

func (f *fakeCartStore) UpsertCartItem(_ context.Context, item *models.CartItem) error {
	for i := range f.items[item.CartID] {
		existing := &f.items[item.CartID][i]
		if existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			item.Quantity = existing.Quantity
			item.UnitPrice = existing.UnitPrice
			return nil
		}
	}
	f.nextID++
	item.ID = f.nextID
	f.items[item.CartID] = append(f.items[item.CartID], *item)
	return nil
}

func (f *fakeCartStore) SetCartItemQuantity(_ context.Context, cartID, productID int64, quantity int) error {
	for i := range f.items[cartID] {
		if f.items[cartID][i].ProductID == productID {
			f.items[cartID][i].Quantity = quantity
			return nil
		}
	}
	return fmt.Errorf("%w: cart item", store.ErrNotFound)
}

func (f *fakeCartStore) RemoveCartItem(_ context.Context, cartID, productID int64) error {
	items := f.items[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			f.items[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: cart item", store.ErrNotFound)
}

func (f *fakeCartStore) ClearCart(_ context.Context, cartID int64) error {
	f.items[cartID] = nil
	return nil
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	svc := NewCartService(newFakeCartStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 10, 2, 500)
	require.NoError(t, err)

	view, err := svc.AddItem(ctx, 1, 10, 3, 999)
	require.NoError(t, err)

	require.Len(t, view.Items, 1, "same product must stay one line")
	assert.Equal(t, 5, view.Items[0].Quantity)
	// the first add's captured price wins
	assert.Equal(t, int64(500), view.Items[0].UnitPrice)
	assert.Equal(t, int64(5*500), view.Total)
}

func TestAddItemValidation(t *testing.T) {
	svc := NewCartService(newFakeCartStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 0, 1, 100)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, 1, 10, 0, 100)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, 1, 10, -2, 100)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, 1, 10, 1, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	svc := NewCartService(newFakeCartStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 10, 2, 500)
	require.NoError(t, err)

	view, err := svc.UpdateItem(ctx, 1, 10, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, view.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, 1, 99, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	view, err = svc.RemoveItem(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)

	_, err = svc.RemoveItem(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearCart(t *testing.T) {
	svc := NewCartService(newFakeCartStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 10, 2, 500)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, 11, 1, 300)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, 1))

	view, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartTotal(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, UnitPrice: 1000},
		{Quantity: 1, UnitPrice: 500},
	}
	assert.Equal(t, int64(2500), CartTotal(items))
	assert.Zero(t, CartTotal(nil))
}
