package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CartStore is the subset of the store the cart service needs
type CartStore interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	UpsertCartItem(ctx context.Context, item *models.CartItem) error
	SetCartItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, cartID, productID int64) error
	ClearCart(ctx context.Context, cartID int64) error
}

// CartService handles the per-user cart aggregate
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CartView is a cart together with its line items
type CartView struct {
	Cart  *models.Cart      `json:"cart"`
	Items []models.CartItem `json:"products"`
	Total int64             `json:"total"`
}

// GetCart returns the caller's cart, creating an empty one on first use
func (s *CartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart")
	defer span.End()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	items, err := s.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	return &CartView{Cart: cart, Items: items, Total: CartTotal(items)}, nil
}

// AddItem appends a line or accumulates quantity onto an existing one.
// Stock is not reserved at add time.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int, unitPrice int64) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if productID <= 0 {
		return nil, fmt.Errorf("%w: malformed product reference", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if unitPrice <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	if err := s.store.UpsertCartItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Debug("Cart line added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", item.Quantity))

	return s.GetCart(ctx, userID)
}

// UpdateItem replaces a line's quantity
func (s *CartService) UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItem")
	defer span.End()

	if productID <= 0 {
		return nil, fmt.Errorf("%w: malformed product reference", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := s.store.SetCartItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return nil, mapStoreErr(err)
	}

	util.CartMutationsTotal.WithLabelValues("update").Inc()
	return s.GetCart(ctx, userID)
}

// RemoveItem drops a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	if productID <= 0 {
		return nil, fmt.Errorf("%w: malformed product reference", ErrValidation)
	}

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := s.store.RemoveCartItem(ctx, cart.ID, productID); err != nil {
		return nil, mapStoreErr(err)
	}

	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	return s.GetCart(ctx, userID)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.Clear")
	defer span.End()

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if err := s.store.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return nil
}

// CartTotal sums captured line prices times quantities
func CartTotal(items []models.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}
