// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/middleware"
	"github.com/prodcare/prodcare-backend/internal/services"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req services.IssueTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.authService.IssueToken(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account":      token.Account,
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_in":   token.ExpiresIn,
	})
}

// GET /auth/me
func (h *AuthHandler) GetAccount(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.KeyAuthRequired)
		return
	}

	utils.SuccessResponse(c, gin.H{"account": account})
}
