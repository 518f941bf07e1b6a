// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/prodcare/prodcare-backend/internal/config"
	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

// AuthService validates bearer tokens and issues them for operators. Session
// handling and the login flow live outside this service.
type AuthService struct {
	store repository.Store
	cfg   config.JWTConfig
}

type IssueTokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Account     *models.Account `json:"account"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"` // in seconds
}

func NewAuthService(store repository.Store, cfg config.JWTConfig) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

// IssueToken checks the account password and signs an access token for it.
func (s *AuthService) IssueToken(ctx context.Context, req *IssueTokenRequest) (*TokenResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if err := account.CheckPassword(req.Password); err != nil {
		return nil, utils.NewUnauthorizedError(i18n.KeyPermissionDenied)
	}

	token, err := utils.GenerateJWT(account.Email, string(account.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &TokenResponse{
		Account:     account,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.AccessTokenTTL * 3600,
	}, nil
}

// Authenticate resolves a bearer token to the account it was issued for.
// The role is read from the account, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	claims, err := utils.ValidateJWT(token)
	if errors.Is(err, utils.ErrTokenExpired) {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthTokenExpired)
	}
	if err != nil {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthInvalidToken).WithCause(err)
	}

	account, err := s.store.GetAccount(ctx, claims.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthAccountNotFound)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
