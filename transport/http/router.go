package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/tute/service"
	"github.com/rs/zerolog"
)

// Services groups what the router serves
type Services struct {
	Auth   *service.AuthService
	Verify *service.VerifyService
	Tokens *service.TokenService
}

// SetupRouter sets up the Gin router
func SetupRouter(services Services, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	handlers := NewAuthHandlers(services.Auth)
	verify := NewVerifyHandlers(services.Verify)
	tokens := NewTokenHandlers(services.Tokens)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Sign-in routes
	public := router.Group("/api")
	{
		public.GET("/nonce", handlers.Nonce)
		public.POST("/complete-siwe", handlers.CompleteSiwe)
	}

	auth := router.Group("/auth")
	{
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(services.Auth))
	{
		api.GET("/me", handlers.Me)
		api.GET("/authorize", handlers.Authorize)
		api.GET("/verify", verify.Status)
		api.POST("/verify", verify.Verify)
		api.GET("/tokens", tokens.List)
		api.POST("/tokens", tokens.Create)
	}

	return router
}
