package models

import "time"

// Event types
const (
	EventTypeOrderPlaced          = "ORDER_PLACED"
	EventTypeOrderStatusChanged   = "ORDER_STATUS_CHANGED"
	EventTypeOrderCancelled       = "ORDER_CANCELLED"
	EventTypeNewsletterSubscribed = "NEWSLETTER_SUBSCRIBED"
	EventTypePasswordResetRequest = "PASSWORD_RESET_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published after a checkout commits
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	UserEmail   string          `json:"user_email"`
	Total       int64           `json:"total"`
	Items       []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published when an order moves along the chain
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	UserEmail   string `json:"user_email"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// OrderCancelledEvent published when an order is cancelled
type OrderCancelledEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	UserEmail   string `json:"user_email"`
	Reason      string `json:"reason"`
}

// NewsletterSubscribedEvent published after a newsletter signup
type NewsletterSubscribedEvent struct {
	BaseEvent
	Email string `json:"email"`
}

// PasswordResetRequestedEvent published when an account owner asks for
// a reset code
type PasswordResetRequestedEvent struct {
	BaseEvent
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}
