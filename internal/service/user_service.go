package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/pwalczak/cardbank/internal/service/secret"
	"github.com/pwalczak/cardbank/internal/store"
)

// ErrInvalidCredentials is returned by Authenticate when the email is
// unknown or the password does not match. The two cases are deliberately
// indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserService provides account-owner registration and sign-in.
type UserService interface {
	// Register creates a new user from the given personal data. The
	// password is hashed before storage; plaintext never persists.
	Register(ctx context.Context, email, password, firstName, lastName, pesel string) (*domain.User, error)

	// Authenticate verifies the email/password pair and returns the user.
	// Returns ErrInvalidCredentials on any mismatch.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// userServiceImpl implements the UserService interface.
type userServiceImpl struct {
	users  store.UserStore
	hasher secret.Hasher
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, hasher secret.Hasher, log *slog.Logger) (UserService, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &userServiceImpl{
		users:  users,
		hasher: hasher,
		logger: log.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register
func (s *userServiceImpl) Register(ctx context.Context, email, password, firstName, lastName, pesel string) (*domain.User, error) {
	user, err := domain.NewUser(email, password, firstName, lastName, pesel)
	if err != nil {
		s.logger.Warn("user validation failed during registration",
			slog.String("error", err.Error()))
		return nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = "" // plaintext must not outlive hashing

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID.String()))
	return user, nil
}

// Authenticate implements UserService.Authenticate
func (s *userServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("sign-in attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.logger.Debug("sign-in attempt with wrong password",
			slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user signed in",
		slog.String("user_id", user.ID.String()))
	return user, nil
}

// GetUser implements UserService.GetUser
func (s *userServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}
