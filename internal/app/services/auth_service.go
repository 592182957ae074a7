package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/auth"
)

// AuthService handles authentication operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error)
}

// AuthUserStore is the user data the auth flows read.
type AuthUserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

// RefreshTokenStore persists opaque refresh tokens.
type RefreshTokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetUserIDByToken(ctx context.Context, token string) (int64, error)
	RevokeToken(ctx context.Context, token string) error
}

type authServiceImpl struct {
	users      AuthUserStore
	tokens     RefreshTokenStore
	teachers   TeacherLookup
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users AuthUserStore,
	tokens RefreshTokenStore,
	teachers TeacherLookup,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		users:      users,
		tokens:     tokens,
		teachers:   teachers,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login authenticates a user
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrValidationFailed)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Warn().Int64("userID", user.ID).Msg("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not record last login")
	}

	profile, err := s.profileOf(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: *profile}, nil
}

// RefreshToken rotates a refresh token: the old one is revoked and a new
// pair is issued.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, err := s.tokens.GetUserIDByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	// Revoke first so a replayed token cannot mint a second pair
	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token. Unknown or already revoked tokens are not
// an error.
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.RevokeToken(ctx, strings.TrimSpace(refreshToken))
	if err != nil && !errors.Is(err, apperrors.ErrTokenNotFound) {
		return err
	}
	return nil
}

// GetProfile retrieves the user with its teacher profile
func (s *authServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user ID", apperrors.ErrValidationFailed)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user)
}

func (s *authServiceImpl) profileOf(ctx context.Context, user *models.User) (*dto.ProfileResponse, error) {
	profile := &dto.ProfileResponse{UserResponse: dto.NewUserResponse(user)}
	if user.RoleType != models.RoleTeacher {
		return profile, nil
	}

	teacher, err := s.teachers.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeacherNotFound) {
			s.logger.Warn().Int64("userID", user.ID).Msg("Teacher account without teacher profile")
			return profile, nil
		}
		return nil, fmt.Errorf("failed to get teacher profile: %w", err)
	}
	resp := dto.NewTeacherResponse(teacher)
	profile.Teacher = &resp
	return profile, nil
}

// issueTokens signs a new pair and stores the refresh token
func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokens.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(pair.ExpiresIn),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
	}, nil
}
