package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travlr/events"
	"travlr/logging"
	"travlr/models"
	"travlr/store"
	"travlr/utils"

	"github.com/rs/zerolog"
)

// AuthService registers users and exchanges credentials for tokens
type AuthService struct {
	users   store.UserStore
	tokens  *utils.TokenManager
	hasher  utils.PasswordHasher
	bus     *events.EventBus
	timeout time.Duration
	logger  zerolog.Logger
}

func NewAuthService(users store.UserStore, tokens *utils.TokenManager, hasher utils.PasswordHasher, bus *events.EventBus, timeout time.Duration, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		bus:     bus,
		timeout: timeout,
		logger:  logging.Component(logger, "auth_service"),
	}
}

// NewUser builds a user with a freshly hashed password. Role defaults to user.
func (s *AuthService) NewUser(name, email, password, role string) (*models.User, error) {
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if role == "" {
		role = models.RoleUser
	}
	return &models.User{
		Email: models.NormalizeEmail(email),
		Name:  name,
		Role:  role,
		Hash:  hash,
		Salt:  salt,
	}, nil
}

// Register creates a user account and returns a token for it
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	user, err := s.NewUser(name, email, password, models.RoleUser)
	if err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.users.CreateUser(ctx, user); err != nil {
		return "", err
	}

	if err := s.bus.PublishJSON(events.EventUserRegistered, events.UserEventPayload{Email: user.Email, Name: user.Name}); err != nil {
		s.logger.Warn().Err(err).Msg("publish user_registered failed")
	}
	return s.tokens.GenerateJWT(user)
}

// Login verifies credentials and returns a token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrUnknownUser
	}
	if err != nil {
		return "", err
	}
	if !s.hasher.Verify(password, user.Hash, user.Salt) {
		return "", ErrWrongPassword
	}
	return s.tokens.GenerateJWT(user)
}

// Profile returns the caller's own account
func (s *AuthService) Profile(ctx context.Context, p models.Principal) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.users.GetUserByEmail(ctx, models.NormalizeEmail(p.Email))
}

func (s *AuthService) ListUsers(ctx context.Context, p models.Principal) ([]models.User, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("list users: %w", ErrForbidden)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.users.ListUsers(ctx)
}

func (s *AuthService) GetUser(ctx context.Context, p models.Principal, id string) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("get user: %w", ErrForbidden)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.users.GetUserByID(ctx, id)
}

func (s *AuthService) DeleteUser(ctx context.Context, p models.Principal, id string) error {
	if !p.IsAdmin() {
		return fmt.Errorf("delete user: %w", ErrForbidden)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.users.DeleteUser(ctx, id)
}
