package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the subset of the store the order service needs
type OrderStore interface {
	CreateOrderFromCart(ctx context.Context, order *models.Order, items []models.OrderItem, cartID int64) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	CancelOrder(ctx context.Context, orderID int64) error
	ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, int, error)

	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// OrderService handles checkout and the order status lifecycle
type OrderService struct {
	store          OrderStore
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service. eventPublisher may be
// nil; events are then skipped.
func NewOrderService(store OrderStore, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// OrderView is an order together with its snapshot lines
type OrderView struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"products"`
}

// Checkout converts the caller's cart into an order. The order snapshots
// each line's name and captured unit price; the total is the sum of
// captured prices, not live ones. The order row, its items, the stock
// decrement and the cart wipe commit in one transaction.
func (s *OrderService) Checkout(ctx context.Context, userID int64, paymentMethod string) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if !models.ValidPaymentMethod(paymentMethod) {
		util.OrdersFailedTotal.WithLabelValues("invalid_payment_method").Inc()
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, paymentMethod)
	}

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	cartItems, err := s.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	if len(cartItems) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	items := make([]models.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		product, err := s.store.GetProductByID(ctx, ci.ProductID)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("product_missing").Inc()
			return nil, mapStoreErr(err)
		}
		if product.Quantity < ci.Quantity {
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, fmt.Errorf("%w: insufficient stock for %s", ErrValidation, product.Name)
		}
		items = append(items, models.OrderItem{
			ProductID: ci.ProductID,
			Name:      product.Name,
			Quantity:  ci.Quantity,
			UnitPrice: ci.UnitPrice,
		})
	}

	order := &models.Order{
		OrderNumber:   uuid.New().String(),
		UserID:        userID,
		Total:         CartTotal(cartItems),
		PaymentMethod: paymentMethod,
		Status:        models.OrderStatusNotProcessed,
	}

	if err := s.store.CreateOrderFromCart(ctx, order, items, cart.ID); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total", order.Total))

	s.publishOrderPlaced(ctx, order, items)

	return &OrderView{Order: order, Items: items}, nil
}

// GetOrder returns an order with its items. Members only see their own
// orders; missing and foreign orders are indistinguishable.
func (s *OrderService) GetOrder(ctx context.Context, callerID int64, callerRole string, orderID int64) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if callerRole != models.RoleAdmin && order.UserID != callerID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &OrderView{Order: order, Items: items}, nil
}

// OrderListing is a page of orders plus pagination data
type OrderListing struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// ListOrders lists orders matching the filter. Non-admin callers are
// pinned to their own orders regardless of the filter.
func (s *OrderService) ListOrders(ctx context.Context, callerID int64, callerRole string, f store.OrderFilter) (*OrderListing, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if callerRole != models.RoleAdmin {
		f.UserID = callerID
	}

	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return &OrderListing{Orders: orders, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// UpdateStatus moves an order along the status chain. Only one step
// forward at a time; moving to Cancelled also restores stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, newStatus string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !models.CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, newStatus)
	}

	oldStatus := order.Status
	if newStatus == models.OrderStatusCancelled {
		if err := s.store.CancelOrder(ctx, orderID); err != nil {
			return nil, mapStoreErr(err)
		}
		util.OrdersCancelledTotal.Inc()
		order.Status = models.OrderStatusCancelled
		s.publishOrderCancelled(ctx, order, "cancelled by administrator")
	} else {
		if err := s.store.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
			return nil, mapStoreErr(err)
		}
		order.Status = newStatus
		s.publishOrderStatusChanged(ctx, order, oldStatus)
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(newStatus).Inc()
	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", oldStatus),
		zap.String("to", order.Status))
	return order, nil
}

// Cancel lets an order's owner cancel it while it is still cancellable.
// Stock consumed by the order is restored in the same transaction.
func (s *OrderService) Cancel(ctx context.Context, callerID int64, callerRole string, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Cancel")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if callerRole != models.RoleAdmin && order.UserID != callerID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if !models.CanTransition(order.Status, models.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, models.OrderStatusCancelled)
	}

	if err := s.store.CancelOrder(ctx, orderID); err != nil {
		return nil, mapStoreErr(err)
	}

	util.OrdersCancelledTotal.Inc()
	util.OrderStatusTransitionsTotal.WithLabelValues(models.OrderStatusCancelled).Inc()
	order.Status = models.OrderStatusCancelled
	s.publishOrderCancelled(ctx, order, "cancelled by customer")

	s.logger.Info("Order cancelled", zap.Int64("order_id", orderID), zap.Int64("user_id", callerID))
	return order, nil
}

// Event publishing is best effort: a broker outage must not fail a
// committed order.

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.eventPublisher == nil {
		return
	}
	itemData := make([]models.OrderItemData, 0, len(items))
	for _, it := range items {
		itemData = append(itemData, models.OrderItemData{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	event := &models.OrderPlacedEvent{
		BaseEvent:   s.baseEvent(models.EventTypeOrderPlaced),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		UserEmail:   s.userEmail(ctx, order.UserID),
		Total:       order.Total,
		Items:       itemData,
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *OrderService) publishOrderStatusChanged(ctx context.Context, order *models.Order, oldStatus string) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent:   s.baseEvent(models.EventTypeOrderStatusChanged),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		UserEmail:   s.userEmail(ctx, order.UserID),
		OldStatus:   oldStatus,
		NewStatus:   order.Status,
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
}

func (s *OrderService) publishOrderCancelled(ctx context.Context, order *models.Order, reason string) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.OrderCancelledEvent{
		BaseEvent:   s.baseEvent(models.EventTypeOrderCancelled),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		UserEmail:   s.userEmail(ctx, order.UserID),
		Reason:      reason,
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}
}

func (s *OrderService) baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func (s *OrderService) userEmail(ctx context.Context, userID int64) string {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to resolve user email for event", zap.Int64("user_id", userID), zap.Error(err))
		return ""
	}
	return user.Email
}
