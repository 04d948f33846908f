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

type fakeOrderStore struct {
	carts      map[int64]*models.Cart
	cartItems  map[int64][]models.CartItem
	products   map[int64]*models.Product
	users      map[int64]*models.User
	orders     map[int64]*models.Order
	orderItems map[int64][]models.OrderItem
	nextID     int64
	cancelErr  error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		carts:      make(map[int64]*models.Cart),
		cartItems:  make(map[int64][]models.CartItem),
		products:   make(map[int64]*models.Product),
		users:      make(map[int64]*models.User),
		orders:     make(map[int64]*models.Order),
		orderItems: make(map[int64][]models.OrderItem),
	}
}

func (f *fakeOrderStore) CreateOrderFromCart(_ context.Context, order *models.Order, items []models.OrderItem, cartID int64) error {
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = order
	for i := range items {
		items[i].OrderID = order.ID
		f.products[items[i].ProductID].Quantity -= items[i].Quantity
	}
	f.orderItems[order.ID] = items
	f.cartItems[cartID] = nil
	return nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", store.ErrNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.orderItems[orderID], nil
}

func (f *fakeOrderStore) UpdateOrderStatus(_ context.Context, orderID int64, status string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %d", store.ErrNotFound, orderID)
	}
	o.Status = status
	return nil
}

func (f *fakeOrderStore) CancelOrder(_ context.Context, orderID int64) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	if err := f.UpdateOrderStatus(nil, orderID, models.OrderStatusCancelled); err != nil {
		return err
	}
	for _, it := range f.orderItems[orderID] {
		f.products[it.ProductID].Quantity += it.Quantity
	}
	return nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context, filter store.OrderFilter) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range f.orders {
		if filter.UserID != 0 && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeOrderStore) GetOrCreateCart(_ context.Context, userID int64) (*models.Cart, error) {
	if c, ok := f.carts[userID]; ok {
		return c, nil
	}
	f.nextID++
	c := &models.Cart{ID: f.nextID, UserID: userID}
	f.carts[userID] = c
	return c, nil
}

func (f *fakeOrderStore) GetCartItems(_ context.Context, cartID int64) ([]models.CartItem, error) {
	return f.cartItems[cartID], nil
}

func (f *fakeOrderStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", store.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeOrderStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", store.ErrNotFound, id)
	}
	return u, nil
}

// seedCart stocks a product and puts it in user 1's cart with the given
// captured price.
func (f *fakeOrderStore) seedCart(t *testing.T, productID int64, stock, qty int, capturedPrice int64) {
	t.Helper()
	f.products[productID] = &models.Product{
		ID: productID, Name: fmt.Sprintf("product-%d", productID),
		Price: capturedPrice * 2, Quantity: stock, IsActive: true,
	}
	cart, err := f.GetOrCreateCart(nil, 1)
	require.NoError(t, err)
	f.cartItems[cart.ID] = append(f.cartItems[cart.ID], models.CartItem{
		CartID: cart.ID, ProductID: productID, Quantity: qty, UnitPrice: capturedPrice,
	})
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore(), nil)

	_, err := svc.Checkout(context.Background(), 1, models.PaymentMethodCOD)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 5, 1, 1000)
	svc := NewOrderService(fs, nil)

	_, err := svc.Checkout(context.Background(), 1, "wire-transfer")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutUsesCapturedPrices(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 5, 2, 1000) // live price is 2000, captured 1000
	fs.seedCart(t, 11, 3, 1, 300)
	svc := NewOrderService(fs, nil)

	view, err := svc.Checkout(context.Background(), 1, models.PaymentMethodCard)
	require.NoError(t, err)

	assert.Equal(t, int64(2*1000+1*300), view.Order.Total)
	assert.Equal(t, models.OrderStatusNotProcessed, view.Order.Status)
	assert.NotEmpty(t, view.Order.OrderNumber)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "product-10", view.Items[0].Name)

	// stock decremented, cart emptied
	assert.Equal(t, 3, fs.products[10].Quantity)
	cart := fs.carts[1]
	assert.Empty(t, fs.cartItems[cart.ID])
}

func TestCheckoutInsufficientStock(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 1, 2, 1000)
	svc := NewOrderService(fs, nil)

	_, err := svc.Checkout(context.Background(), 1, models.PaymentMethodCOD)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, fs.products[10].Quantity, "failed checkout must not touch stock")
}

func TestGetOrderOwnership(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 5, 1, 1000)
	svc := NewOrderService(fs, nil)
	ctx := context.Background()

	view, err := svc.Checkout(ctx, 1, models.PaymentMethodCOD)
	require.NoError(t, err)
	orderID := view.Order.ID

	_, err = svc.GetOrder(ctx, 1, models.RoleMember, orderID)
	assert.NoError(t, err)

	// another member cannot tell a foreign order from a missing one
	_, err = svc.GetOrder(ctx, 2, models.RoleMember, orderID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetOrder(ctx, 2, models.RoleAdmin, orderID)
	assert.NoError(t, err)

	_, err = svc.GetOrder(ctx, 1, models.RoleMember, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusFollowsChain(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 5, 1, 1000)
	svc := NewOrderService(fs, nil)
	ctx := context.Background()

	view, err := svc.Checkout(ctx, 1, models.PaymentMethodCOD)
	require.NoError(t, err)
	orderID := view.Order.ID

	// skipping ahead is rejected
	_, err = svc.UpdateStatus(ctx, orderID, models.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	order, err := svc.UpdateStatus(ctx, orderID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)

	order, err = svc.UpdateStatus(ctx, orderID, models.OrderStatusShipped)
	require.NoError(t, err)
	order, err = svc.UpdateStatus(ctx, orderID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, order.Status)

	// delivered is terminal
	_, err = svc.UpdateStatus(ctx, orderID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRestoresStock(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 5, 2, 1000)
	svc := NewOrderService(fs, nil)
	ctx := context.Background()

	view, err := svc.Checkout(ctx, 1, models.PaymentMethodCOD)
	require.NoError(t, err)
	orderID := view.Order.ID
	require.Equal(t, 3, fs.products[10].Quantity)

	// a stranger cannot cancel it
	_, err = svc.Cancel(ctx, 2, models.RoleMember, orderID)
	assert.ErrorIs(t, err, ErrNotFound)

	order, err := svc.Cancel(ctx, 1, models.RoleMember, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, 5, fs.products[10].Quantity)

	// cancelling twice is rejected
	_, err = svc.Cancel(ctx, 1, models.RoleMember, orderID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRaceLoserGetsInvalidTransition(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 5, 2, 1000)
	svc := NewOrderService(fs, nil)
	ctx := context.Background()

	view, err := svc.Checkout(ctx, 1, models.PaymentMethodCOD)
	require.NoError(t, err)
	require.Equal(t, 3, fs.products[10].Quantity)

	// another cancel took the row between the status read and the update
	fs.cancelErr = fmt.Errorf("%w: order %d is no longer cancellable", store.ErrConflict, view.Order.ID)

	_, err = svc.Cancel(ctx, 1, models.RoleMember, view.Order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 3, fs.products[10].Quantity, "the losing cancel must not restore stock")
}

func TestListOrdersPinsMembersToOwnOrders(t *testing.T) {
	fs := newFakeOrderStore()
	fs.seedCart(t, 10, 10, 1, 1000)
	svc := NewOrderService(fs, nil)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, 1, models.PaymentMethodCOD)
	require.NoError(t, err)

	// a foreign order directly in the store
	fs.nextID++
	fs.orders[fs.nextID] = &models.Order{ID: fs.nextID, UserID: 2, Status: models.OrderStatusNotProcessed}

	listing, err := svc.ListOrders(ctx, 1, models.RoleMember, store.OrderFilter{UserID: 2})
	require.NoError(t, err)
	require.Len(t, listing.Orders, 1)
	assert.Equal(t, int64(1), listing.Orders[0].UserID)

	listing, err = svc.ListOrders(ctx, 99, models.RoleAdmin, store.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, listing.Orders, 2)
}
