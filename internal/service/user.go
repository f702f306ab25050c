package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/jubmeng/rainbow/internal/auth"
	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/repository"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = time.Hour

// resetTokenBytes is the entropy of a reset token before hex encoding.
const resetTokenBytes = 32

// UserService implements account, profile and password operations.
type UserService struct {
	users       repository.UserRepository
	resetTokens repository.ResetTokenStore
	jwtManager  *auth.JWTManager
	hasher      *auth.PasswordHasher
	events      UserEvents
	logger      *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	resetTokens repository.ResetTokenStore,
	jwtManager *auth.JWTManager,
	hasher *auth.PasswordHasher,
	events UserEvents,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:       users,
		resetTokens: resetTokens,
		jwtManager:  jwtManager,
		hasher:      hasher,
		events:      events,
		logger:      logger,
	}
}

// --- Input/Output types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Prefix      string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the profile fields to change; nil fields are kept.
type UpdateProfileInput struct {
	Username    *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Prefix      *string
	ImageURL    *string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"token"`
}

// --- Auth Operations ---

// Register creates a new account and signs the user in.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, apperrors.InvalidInput("a valid email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		Prefix:       input.Prefix,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, AccessToken: token}, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user for login: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &AuthResult{User: user, AccessToken: token}, nil
}

// ForgotPassword issues a single-use reset token and hands it to the mailer
// through a user.password_reset event.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user", email)
		}
		return fmt.Errorf("get user for password reset: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.resetTokens.Save(ctx, token, user.ID, ResetTokenTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// The token only reaches the user through the mailer, so a failed
	// publish fails the request.
	if err := s.events.PublishPasswordReset(ctx, domain.PasswordResetRequested{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ResetTokenTTL),
	}); err != nil {
		return fmt.Errorf("publish password reset: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset requested", slog.String("user_id", user.ID))

	return nil
}

// ResetPassword consumes a reset token and replaces the user's password.
// The token is restored when the password cannot be stored.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperrors.InvalidInput("reset token is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	userID, err := s.resetTokens.Consume(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.restoreResetToken(ctx, token, userID)
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		s.restoreResetToken(ctx, token, userID)
		return fmt.Errorf("update user password: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed", slog.String("user_id", userID))

	return nil
}

// restoreResetToken puts a consumed token back after the password write
// failed, so the user can retry with the same link.
func (s *UserService) restoreResetToken(ctx context.Context, token, userID string) {
	if err := s.resetTokens.Save(ctx, token, userID, ResetTokenTTL); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore reset token",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// --- Profile Operations ---

// GetProfile retrieves a user by their ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, apperrors.InvalidInput("username must not be empty")
		}
		user.Username = username
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = *input.PhoneNumber
	}
	if input.Prefix != nil {
		user.Prefix = *input.Prefix
	}
	if input.ImageURL != nil {
		user.ImageURL = *input.ImageURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user profile: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile updated", slog.String("user_id", user.ID))

	return user, nil
}

// SetSeller promotes targetID to a seller. Users may only promote themselves.
func (s *UserService) SetSeller(ctx context.Context, actorID, targetID string) error {
	if actorID != targetID {
		return apperrors.Forbidden("cannot change another user's seller status")
	}
	if err := s.users.SetSeller(ctx, targetID); err != nil {
		return fmt.Errorf("set seller: %w", err)
	}

	s.logger.InfoContext(ctx, "user set as seller", slog.String("user_id", targetID))

	return nil
}

// Navbar returns the header view of the user.
func (s *UserService) Navbar(ctx context.Context, userID string) (domain.NavbarInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.NavbarInfo{}, fmt.Errorf("get user for navbar: %w", err)
	}
	return user.Navbar(), nil
}

// --- Helpers ---

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one letter and one digit")
	}

	return nil
}
