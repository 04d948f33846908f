package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserStore is the subset of the store the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ResetPublisher hands password-reset events to the mail worker
type ResetPublisher interface {
	PublishPasswordResetRequested(ctx context.Context, event *models.PasswordResetRequestedEvent) error
}

// AuthService handles registration, login and password-reset requests
type AuthService struct {
	store  UserStore
	jwter  *auth.JWTer
	events ResetPublisher
	logger *zap.Logger
}

// NewAuthService creates a new auth service. events may be nil.
func NewAuthService(store UserStore, jwter *auth.JWTer, events ResetPublisher) *AuthService {
	return &AuthService{
		store:  store,
		jwter:  jwter,
		events: events,
		logger: util.GetLogger(),
	}
}

// RegisterRequest is the payload to create an account
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthResponse carries a signed token and the public user fields
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and signs the user in. The submitted
// password is stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email address already in use", ErrValidation)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleMember,
		Provider:     models.ProviderEmail,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return s.issue(user)
}

// Login verifies the password against the stored hash and issues a
// token. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: incorrect email or password", ErrValidation)
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: incorrect email or password", ErrValidation)
	}

	return s.issue(user)
}

// ForgotPassword triggers the reset flow. It reports success whether or
// not the account exists, so account existence is never leaked.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "AuthService.ForgotPassword")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	// Delivery is best effort: the caller gets the same neutral answer
	// whether or not the broker is reachable.
	if s.events != nil {
		event := &models.PasswordResetRequestedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePasswordResetRequest,
				Timestamp: time.Now(),
			},
			UserID:     user.ID,
			Email:      user.Email,
			ResetToken: uuid.New().String(),
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Error("Failed to publish password reset event", zap.Error(err))
		}
	}

	s.logger.Info("Password reset requested", zap.Int64("user_id", user.ID))
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, err := s.jwter.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}
