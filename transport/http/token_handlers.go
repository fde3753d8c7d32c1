package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/service"
)

// TokenHandlers serves the token factory
type TokenHandlers struct {
	tokenService *service.TokenService
}

// NewTokenHandlers creates new token handlers
func NewTokenHandlers(tokenService *service.TokenService) *TokenHandlers {
	return &TokenHandlers{tokenService: tokenService}
}

// List returns factory tokens with the caller's balances
func (h *TokenHandlers) List(c *gin.Context) {
	tokens, err := h.tokenService.ListTokens(c.Request.Context(), c.GetString(userAddressKey))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Create returns the transaction the wallet must submit to deploy a token
func (h *TokenHandlers) Create(c *gin.Context) {
	var draft core.TokenDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	tx, err := h.tokenService.PrepareCreateToken(c.Request.Context(), c.GetString(userAddressKey), &draft)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "Verification required"})
		case errors.Is(err, core.ErrInvalidDraft):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}
