package userservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models"
	"github.com/haguru/kakashi/internal/models/dto"
	"github.com/haguru/kakashi/internal/userrepo/constants"
	"github.com/haguru/kakashi/pkg/helper"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	UserRepo interfaces.UserRepository
	Logger   interfaces.Logger
	// HashCost is the bcrypt cost used for new passwords.
	HashCost int
	now      func() time.Time
}

// NewUserService creates a new UserService instance.
func NewUserService(repo interfaces.UserRepository, logger interfaces.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		Logger:   logger,
		HashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterUser rejects taken usernames and emails, hashes the password and
// adds the user via the repository. Duplicates surface as ErrUsernameTaken or
// ErrEmailTaken, including when a concurrent signup wins the unique index.
func (s *UserService) RegisterUser(ctx context.Context, req dto.SignupRequestDTO) (string, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", req.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	role := models.Role(req.Role)
	if !role.Valid() {
		s.Logger.Error(ErrInvalidRole, "func", funcName, "user", req.Username, "role", req.Role)
		return "", fmt.Errorf("%s: %q", ErrInvalidRole, req.Role)
	}

	existing, err := s.UserRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", req.Username, "error", err)
		return "", fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}
	if existing != nil {
		s.Logger.Warn("Username already taken", "func", funcName, "user", req.Username)
		return "", ErrUsernameTaken
	}

	existing, err = s.UserRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", req.Username, "error", err)
		return "", fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}
	if existing != nil {
		s.Logger.Warn("Email already in use", "func", funcName, "user", req.Username)
		return "", ErrEmailTaken
	}

	s.Logger.Info("Registering user", "func", funcName, "user", req.Username, "role", role)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.HashCost)
	if err != nil {
		s.Logger.Error(ErrFailedToHashPassword, "func", funcName, "user", req.Username, "error", err)
		return "", fmt.Errorf("%s: %w", ErrFailedToHashPassword, err)
	}

	user := models.NewUser(req.Username, req.Email, string(hashedPassword), role)
	user.CreatedAt = s.now()

	userID, err := s.UserRepo.AddUser(ctx, *user)
	if err != nil {
		switch {
		case errors.Is(err, constants.ErrDuplicateUsername):
			return "", ErrUsernameTaken
		case errors.Is(err, constants.ErrDuplicateEmail):
			return "", ErrEmailTaken
		}
		s.Logger.Error(ErrFailedToRegisterUser, "func", funcName, "user", req.Username, "error", err)
		return "", fmt.Errorf("%s: %w", ErrFailedToRegisterUser, err)
	}

	s.Logger.Info("User registered successfully", "func", funcName, "user", req.Username, "ID", userID)
	return userID, nil
}

// AuthenticateUser verifies a user's credentials and returns the user.
// Unknown users and wrong passwords both wrap ErrInvalidCredentials.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", username)

	user, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", username, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}
	if user == nil {
		s.Logger.Warn(ErrUserNotFound, "func", funcName, "user", username)
		return nil, fmt.Errorf("%s: %w", ErrUserNotFound, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		s.Logger.Warn(ErrInvalidPassword, "func", funcName, "user", username)
		return nil, fmt.Errorf("%s: %w", ErrInvalidPassword, ErrInvalidCredentials)
	}

	s.Logger.Info("User authenticated successfully", "func", funcName, "user", username)
	return user, nil
}

// Ping reports whether the user store is reachable.
func (s *UserService) Ping(ctx context.Context) error {
	return s.UserRepo.Ping(ctx)
}
