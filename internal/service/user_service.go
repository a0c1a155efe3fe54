package service

import (
	"context"
	"fmt"
	"time"

	"agora-express/internal/auth"
	"agora-express/internal/model"
	"agora-express/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// userService implements UserService.
type userService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	validate *validator.Validate,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo: userRepo,
		tokens:   tokens,
		validate: validate,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// Register creates a new user account and issues a token.
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Register request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check phone uniqueness")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	if existing != nil {
		return nil, model.ErrPhoneTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CoinBalance:  0,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Msg("user registered")

	return &model.AuthResponse{Token: token, User: *user}, nil
}

// Login verifies credentials and issues a token.
func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidArgument, "Login request is required")
	}
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query user for login")
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("user_id", user.ID.String()).Msg("password mismatch")
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &model.AuthResponse{Token: token, User: *user}, nil
}
