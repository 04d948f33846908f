package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"storefront/config"
	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewsletterService subscribes addresses to the Mailchimp audience list
// and announces successful signups on the broker.
type NewsletterService struct {
	apiKey         string
	listID         string
	baseURL        string
	httpClient     *http.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewNewsletterService creates a newsletter service. The Mailchimp data
// center is encoded in the API key suffix (e.g. "xxxx-us6").
func NewNewsletterService(cfg config.MailchimpConfig, eventPublisher *broker.EventPublisher) *NewsletterService {
	dc := "us1"
	if i := strings.LastIndex(cfg.APIKey, "-"); i >= 0 && i < len(cfg.APIKey)-1 {
		dc = cfg.APIKey[i+1:]
	}
	return &NewsletterService{
		apiKey:         cfg.APIKey,
		listID:         cfg.ListID,
		baseURL:        fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc),
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

type mailchimpMember struct {
	EmailAddress string `json:"email_address"`
	Status       string `json:"status"`
}

type mailchimpError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// Subscribe registers the address with the mailing list provider. A
// provider rejection (already subscribed, undeliverable address) comes
// back as a validation error; provider outages are internal failures.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "NewsletterService.Subscribe")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		util.NewsletterSubscribesTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	body, err := json.Marshal(mailchimpMember{EmailAddress: email, Status: "subscribed"})
	if err != nil {
		return fmt.Errorf("failed to encode subscription: %w", err)
	}

	url := fmt.Sprintf("%s/lists/%s/members", s.baseURL, s.listID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build subscription request: %w", err)
	}
	req.SetBasicAuth("anystring", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		util.NewsletterSubscribesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("mailing list provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to the event
	case resp.StatusCode == http.StatusBadRequest:
		var provErr mailchimpError
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &provErr)
		util.NewsletterSubscribesTotal.WithLabelValues("rejected").Inc()
		if provErr.Title == "Member Exists" {
			return fmt.Errorf("%w: email address is already subscribed", ErrValidation)
		}
		s.logger.Warn("Mailing list provider rejected subscription",
			zap.String("title", provErr.Title), zap.String("detail", provErr.Detail))
		return fmt.Errorf("%w: email address was rejected by the mailing list", ErrValidation)
	default:
		util.NewsletterSubscribesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("mailing list provider returned status %d", resp.StatusCode)
	}

	util.NewsletterSubscribesTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Newsletter subscription accepted")

	if s.eventPublisher != nil {
		event := &models.NewsletterSubscribedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeNewsletterSubscribed,
				Timestamp: time.Now(),
			},
			Email: email,
		}
		if err := s.eventPublisher.PublishNewsletterSubscribed(ctx, event); err != nil {
			s.logger.Error("Failed to publish NewsletterSubscribed event", zap.Error(err))
		}
	}
	return nil
}
