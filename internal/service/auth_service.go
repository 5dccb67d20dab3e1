package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"securelink/internal/entities"
	"securelink/internal/models"
	"securelink/internal/repository"
)

// TokenIssuer signs access tokens. *jwt.JWTService implements it.
type TokenIssuer interface {
	GenerateToken(userID, email string) (string, error)
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.ProfileResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	linkRepo repository.LinkRepository
	tokens   TokenIssuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, linkRepo repository.LinkRepository, tokens TokenIssuer, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		linkRepo: linkRepo,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	// Check if user already exists
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, internal("failed to look up user", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}

	now := s.now().UTC()
	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         nonEmpty(req.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, internal("failed to create user", err)
	}

	// Generate JWT token for automatic login after registration
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, internal("failed to generate token", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)

	return &models.RegisterResponse{
		Message: "User registered successfully",
		User: models.AuthResponse{
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.CreatedAt,
			Token:     token,
		},
	}, nil
}

// Login authenticates a user and returns user info with JWT token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, internal("failed to generate token", err)
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	return &models.AuthResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		Token:     token,
	}, nil
}

// Me returns the profile of the signed-in account
func (s *authService) Me(ctx context.Context, userID string) (*models.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated.withMessage("user not found")
	}
	if err != nil {
		return nil, internal("failed to look up user", err)
	}

	count, err := s.linkRepo.CountByOwner(ctx, user.ID)
	if err != nil {
		return nil, internal("failed to count links", err)
	}

	return &models.ProfileResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
		LinkCount: count,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
