package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/worklane/timeledger-backend-go/internal/domain/user"
	"github.com/worklane/timeledger-backend-go/internal/pkg/jwt"
)

// TokenResponse is an issued session pair.
type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresIn  int64  `json:"access_token_expires_in"`
	RefreshToken          string `json:"-"`
	RefreshTokenExpiresIn int64  `json:"-"`
}

type Service struct {
	userRepo user.Repository
	jwt.Service
}

func NewAuthService(userRepo user.Repository, jwtService jwt.Service) *Service {
	return &Service{
		userRepo: userRepo,
		Service:  jwtService,
	}
}

// Login verifies credentials and issues an access/refresh token pair. Every
// failure mode reads the same to the caller: invalid credentials.
func (a *Service) Login(ctx context.Context, email, password string) (TokenResponse, user.User, error) {
	userData, err := a.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return TokenResponse{}, user.User{}, user.ErrInvalidCredentials
		}
		return TokenResponse{}, user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !userData.IsActive {
		return TokenResponse{}, user.User{}, user.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(password)); err != nil {
		return TokenResponse{}, user.User{}, user.ErrInvalidCredentials
	}

	tokens, err := a.issueTokens(userData)
	if err != nil {
		return TokenResponse{}, user.User{}, err
	}
	return tokens, userData, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new pair. The old
// refresh token is revoked so each one is single-use.
func (a *Service) Refresh(ctx context.Context, refreshToken string) (TokenResponse, user.User, error) {
	if a.IsTokenRevoked(refreshToken) {
		return TokenResponse{}, user.User{}, user.ErrInvalidCredentials
	}

	userID, err := a.ValidateRefreshToken(refreshToken)
	if err != nil {
		return TokenResponse{}, user.User{}, user.ErrInvalidCredentials
	}

	userData, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return TokenResponse{}, user.User{}, user.ErrInvalidCredentials
		}
		return TokenResponse{}, user.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	if !userData.IsActive {
		return TokenResponse{}, user.User{}, user.ErrInvalidCredentials
	}

	a.RevokeToken(refreshToken)

	tokens, err := a.issueTokens(userData)
	if err != nil {
		return TokenResponse{}, user.User{}, err
	}
	return tokens, userData, nil
}

func (a *Service) Logout(refreshToken string) {
	if refreshToken != "" {
		a.RevokeToken(refreshToken)
	}
}

func (a *Service) issueTokens(userData user.User) (TokenResponse, error) {
	var tokens TokenResponse
	var err error

	tokens.AccessToken, tokens.AccessTokenExpiresIn, err = a.GenerateAccessToken(
		userData.ID, userData.Email, userData.EmployeeID, userData.Role)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	tokens.RefreshToken, tokens.RefreshTokenExpiresIn, err = a.GenerateRefreshToken(userData.ID)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return tokens, nil
}

// HashPassword is used by seeding and account provisioning.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
