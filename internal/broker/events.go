package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	orders     *Producer
	newsletter *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(orders, newsletter *Producer) *EventPublisher {
	return &EventPublisher{orders: orders, newsletter: newsletter}
}

// PublishOrderPlaced publishes an OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishOrderStatusChanged publishes an OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishOrderCancelled publishes an OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishNewsletterSubscribed publishes a NewsletterSubscribed event
func (ep *EventPublisher) PublishNewsletterSubscribed(ctx context.Context, event *models.NewsletterSubscribedEvent) error {
	return ep.newsletter.PublishEvent(ctx, event.Email, event)
}

// PublishPasswordResetRequested publishes a PasswordResetRequested event
func (ep *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event *models.PasswordResetRequestedEvent) error {
	return ep.newsletter.PublishEvent(ctx, event.Email, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onOrderPlaced          func(context.Context, *models.OrderPlacedEvent) error
	onOrderStatusChanged   func(context.Context, *models.OrderStatusChangedEvent) error
	onOrderCancelled       func(context.Context, *models.OrderCancelledEvent) error
	onNewsletterSubscribed func(context.Context, *models.NewsletterSubscribedEvent) error
	onPasswordReset        func(context.Context, *models.PasswordResetRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderPlaced registers a handler for OrderPlaced events
func (eh *EventHandler) OnOrderPlaced(handler func(context.Context, *models.OrderPlacedEvent) error) {
	eh.onOrderPlaced = handler
}

// OnOrderStatusChanged registers a handler for OrderStatusChanged events
func (eh *EventHandler) OnOrderStatusChanged(handler func(context.Context, *models.OrderStatusChangedEvent) error) {
	eh.onOrderStatusChanged = handler
}

// OnOrderCancelled registers a handler for OrderCancelled events
func (eh *EventHandler) OnOrderCancelled(handler func(context.Context, *models.OrderCancelledEvent) error) {
	eh.onOrderCancelled = handler
}

// OnNewsletterSubscribed registers a handler for NewsletterSubscribed events
func (eh *EventHandler) OnNewsletterSubscribed(handler func(context.Context, *models.NewsletterSubscribedEvent) error) {
	eh.onNewsletterSubscribed = handler
}

// OnPasswordResetRequested registers a handler for PasswordResetRequested events
func (eh *EventHandler) OnPasswordResetRequested(handler func(context.Context, *models.PasswordResetRequestedEvent) error) {
	eh.onPasswordReset = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderPlaced:
		if eh.onOrderPlaced != nil {
			var event models.OrderPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPlaced event: %w", err)
			}
			return eh.onOrderPlaced(ctx, &event)
		}

	case models.EventTypeOrderStatusChanged:
		if eh.onOrderStatusChanged != nil {
			var event models.OrderStatusChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderStatusChanged event: %w", err)
			}
			return eh.onOrderStatusChanged(ctx, &event)
		}

	case models.EventTypeOrderCancelled:
		if eh.onOrderCancelled != nil {
			var event models.OrderCancelledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCancelled event: %w", err)
			}
			return eh.onOrderCancelled(ctx, &event)
		}

	case models.EventTypeNewsletterSubscribed:
		if eh.onNewsletterSubscribed != nil {
			var event models.NewsletterSubscribedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal NewsletterSubscribed event: %w", err)
			}
			return eh.onNewsletterSubscribed(ctx, &event)
		}

	case models.EventTypePasswordResetRequest:
		if eh.onPasswordReset != nil {
			var event models.PasswordResetRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PasswordResetRequested event: %w", err)
			}
			return eh.onPasswordReset(ctx, &event)
		}

	default:
		util.GetLogger().Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
