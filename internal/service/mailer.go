package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/config"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Mailer sends transactional email through the Mailgun messages API
type Mailer struct {
	apiKey     string
	domain     string
	sender     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMailer creates a mailer from the Mailgun config
func NewMailer(cfg config.MailgunConfig) *Mailer {
	return &Mailer{
		apiKey:     cfg.APIKey,
		domain:     cfg.Domain,
		sender:     cfg.Sender,
		baseURL:    "https://api.mailgun.net/v3",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     util.GetLogger(),
	}
}

func (m *Mailer) send(ctx context.Context, template, to, subject, text string) error {
	form := url.Values{}
	form.Set("from", m.sender)
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/%s/messages", m.baseURL, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		util.MailSendsTotal.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("mail provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.MailSendsTotal.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	util.MailSendsTotal.WithLabelValues(template, "ok").Inc()
	m.logger.Info("Email sent", zap.String("template", template))
	return nil
}

// SendOrderConfirmation confirms a freshly placed order
func (m *Mailer) SendOrderConfirmation(ctx context.Context, event *models.OrderPlacedEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	var lines strings.Builder
	for _, item := range event.Items {
		fmt.Fprintf(&lines, "  %d x %s at %s each\n", item.Quantity, item.Name, formatPrice(item.UnitPrice))
	}
	subject := fmt.Sprintf("Order confirmation %s", event.OrderNumber)
	text := fmt.Sprintf(
		"Thank you for your order!\n\nOrder number: %s\n\n%s\nTotal: %s\n\nWe will let you know as soon as it ships.\n",
		event.OrderNumber, lines.String(), formatPrice(event.Total))
	return m.send(ctx, "order_confirmation", event.UserEmail, subject, text)
}

// SendOrderStatusUpdate notifies the customer of a status change
func (m *Mailer) SendOrderStatusUpdate(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Your order %s is now %s", event.OrderNumber, event.NewStatus)
	text := fmt.Sprintf(
		"Good news!\n\nYour order %s moved from %q to %q.\n",
		event.OrderNumber, event.OldStatus, event.NewStatus)
	return m.send(ctx, "order_status_update", event.UserEmail, subject, text)
}

// SendOrderCancelled confirms a cancellation
func (m *Mailer) SendOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Order %s cancelled", event.OrderNumber)
	text := fmt.Sprintf(
		"Your order %s has been cancelled (%s).\nAny reserved items have been returned to stock.\n",
		event.OrderNumber, event.Reason)
	return m.send(ctx, "order_cancelled", event.UserEmail, subject, text)
}

// SendPasswordReset delivers the reset code to the account owner
func (m *Mailer) SendPasswordReset(ctx context.Context, event *models.PasswordResetRequestedEvent) error {
	if event.Email == "" {
		return nil
	}
	subject := "Reset your password"
	text := fmt.Sprintf(
		"We received a request to reset your password.\n\nYour reset code:\n\n  %s\n\nIf you did not request this, you can ignore this email.\n",
		event.ResetToken)
	return m.send(ctx, "password_reset", event.Email, subject, text)
}

// SendNewsletterWelcome greets a fresh newsletter subscriber
func (m *Mailer) SendNewsletterWelcome(ctx context.Context, event *models.NewsletterSubscribedEvent) error {
	subject := "Welcome to our newsletter"
	text := "You are subscribed! Expect product news and offers in your inbox.\n"
	return m.send(ctx, "newsletter_welcome", event.Email, subject, text)
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
