package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/service"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// MailWorker consumes order and newsletter events and turns them into
// transactional email. Send failures are logged, never retried; the
// next event of the same order supersedes a lost message.
type MailWorker struct {
	orders       *broker.Consumer
	newsletter   *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewMailWorker creates a mail worker wired to both event topics
func NewMailWorker(orders, newsletter *broker.Consumer, mailer *service.Mailer) *MailWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(mailer.SendOrderConfirmation)
	eventHandler.OnOrderStatusChanged(mailer.SendOrderStatusUpdate)
	eventHandler.OnOrderCancelled(mailer.SendOrderCancelled)
	eventHandler.OnNewsletterSubscribed(mailer.SendNewsletterWelcome)
	eventHandler.OnPasswordResetRequested(mailer.SendPasswordReset)

	return &MailWorker{
		orders:       orders,
		newsletter:   newsletter,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start consumes both topics until the context is cancelled
func (w *MailWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting mail worker")

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.orders.StartConsuming(ctx, w.eventHandler.HandleMessage)
	}()
	go func() {
		errCh <- w.newsletter.StartConsuming(ctx, w.eventHandler.HandleMessage)
	}()

	<-errCh
	return <-errCh
}

// Stop closes both consumers
func (w *MailWorker) Stop() error {
	w.logger.Info("Stopping mail worker")
	if err := w.orders.Close(); err != nil {
		return err
	}
	return w.newsletter.Close()
}
