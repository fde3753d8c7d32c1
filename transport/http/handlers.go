package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/service"
	"github.com/layer-3/tute/siwe"
)

const nonceCookie = "siwe"

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// Nonce issues a sign-in nonce and pins it to the browser in a cookie
func (h *AuthHandlers) Nonce(c *gin.Context) {
	nonce, err := h.authService.IssueNonce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create nonce"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(nonceCookie, nonce, int(h.authService.NonceTTL().Seconds()), "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// CompleteSiwe verifies a signed wallet auth payload and opens a session
func (h *AuthHandlers) CompleteSiwe(c *gin.Context) {
	var req struct {
		Payload *siwe.WalletAuthPayload `json:"payload"`
		Nonce   string                  `json:"nonce"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// The cookie is authoritative; the body nonce only stands in when the
	// cookie did not survive, and must still be a live issued nonce.
	nonce, err := c.Cookie(nonceCookie)
	if err != nil || nonce == "" {
		nonce = req.Nonce
	}

	out, err := h.authService.CompleteSignIn(c.Request.Context(), req.Payload, nonce)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"isValid": false,
			"error":   "Authentication failed",
		})
		return
	}

	if !out.Result.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"isValid": false,
			"error":   out.Result.Error,
		})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(nonceCookie, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"isValid":         true,
		"siweMessageData": out.Result.Data,
		"user":            out.User,
		"access_token":    out.AccessToken,
		"refresh_token":   out.RefreshToken,
		"token_type":      "Bearer",
		"expires_in":      int(out.ExpiresIn.Seconds()),
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to refresh tokens"

		switch {
		case errors.Is(err, core.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token expired"
		case errors.Is(err, core.ErrTokenInvalidated):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token has been invalidated"
		case errors.Is(err, core.ErrInvalidToken):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid refresh token"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(h.authService.AccessTTL().Seconds()),
	})
}

// Logout handles session logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := h.authService.Logout(c.Request.Context(), req.RefreshToken)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to logout"

		switch {
		case errors.Is(err, core.ErrTokenExpired):
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		case errors.Is(err, core.ErrInvalidToken):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid refresh token"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	address, exists := c.Get(userAddressKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}

// Authorize checks if a user is authorized
func (h *AuthHandlers) Authorize(c *gin.Context) {
	address, exists := c.Get(userAddressKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorized": true,
		"address":    address,
	})
}
